package memory

import (
	"context"
	"sync"

	"github.com/draftradar/tipoff/internal/domain/refreshrun"
)

const defaultRunCapacity = 64

// RefreshRunRepository keeps the most recent scheduler runs for operator
// introspection. Older runs fall off; history belongs in the logs.
type RefreshRunRepository struct {
	mu       sync.Mutex
	capacity int
	runs     []refreshrun.Run
}

func NewRefreshRunRepository(capacity int) *RefreshRunRepository {
	if capacity <= 0 {
		capacity = defaultRunCapacity
	}
	return &RefreshRunRepository{capacity: capacity}
}

func (r *RefreshRunRepository) Record(_ context.Context, run refreshrun.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs = append(r.runs, cloneRun(run))
	if overflow := len(r.runs) - r.capacity; overflow > 0 {
		r.runs = append(r.runs[:0:0], r.runs[overflow:]...)
	}
	return nil
}

func (r *RefreshRunRepository) GetByID(_ context.Context, runID string) (refreshrun.Run, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.runs {
		if r.runs[i].ID == runID {
			return cloneRun(r.runs[i]), true, nil
		}
	}
	return refreshrun.Run{}, false, nil
}

// ListRecent returns the latest runs newest-first.
func (r *RefreshRunRepository) ListRecent(_ context.Context, limit int) ([]refreshrun.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || limit > len(r.runs) {
		limit = len(r.runs)
	}

	out := make([]refreshrun.Run, 0, limit)
	for i := len(r.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, cloneRun(r.runs[i]))
	}
	return out, nil
}

func cloneRun(run refreshrun.Run) refreshrun.Run {
	copied := run
	copied.Tasks = append([]refreshrun.TaskResult(nil), run.Tasks...)
	return copied
}
