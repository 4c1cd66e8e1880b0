package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/draftradar/tipoff/internal/domain/curation"
)

const defaultAuditCapacity = 512

// CurationRepository is a bounded ring of audit events: when the capacity is
// exceeded the oldest events fall off. Curation is a review queue, not an
// archive, so losing ancient unreviewed events is acceptable in memory mode.
type CurationRepository struct {
	mu       sync.Mutex
	capacity int
	events   []curation.AuditEvent
}

func NewCurationRepository(capacity int) *CurationRepository {
	if capacity <= 0 {
		capacity = defaultAuditCapacity
	}
	return &CurationRepository{capacity: capacity}
}

func (r *CurationRepository) Append(_ context.Context, event curation.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, cloneAuditEvent(event))
	if overflow := len(r.events) - r.capacity; overflow > 0 {
		r.events = append(r.events[:0:0], r.events[overflow:]...)
	}
	return nil
}

// ListUnresolved returns unresolved events newest-first.
func (r *CurationRepository) ListUnresolved(_ context.Context, limit int) ([]curation.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = len(r.events)
	}

	out := make([]curation.AuditEvent, 0, limit)
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		if r.events[i].Resolved() {
			continue
		}
		out = append(out, cloneAuditEvent(r.events[i]))
	}
	return out, nil
}

func (r *CurationRepository) GetByID(_ context.Context, eventID string) (curation.AuditEvent, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.events {
		if r.events[i].ID == eventID {
			return cloneAuditEvent(r.events[i]), true, nil
		}
	}
	return curation.AuditEvent{}, false, nil
}

func (r *CurationRepository) MarkResolved(_ context.Context, eventID, note string, resolvedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.events {
		if r.events[i].ID != eventID {
			continue
		}
		at := resolvedAt
		r.events[i].ResolvedAt = &at
		r.events[i].ResolvedNote = note
		return nil
	}
	return fmt.Errorf("audit event %q not found", eventID)
}

// Len reports how many events are currently retained.
func (r *CurationRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func cloneAuditEvent(e curation.AuditEvent) curation.AuditEvent {
	copied := e
	copied.RawNames = append([]string(nil), e.RawNames...)
	if e.ResolvedAt != nil {
		at := *e.ResolvedAt
		copied.ResolvedAt = &at
	}
	return copied
}
