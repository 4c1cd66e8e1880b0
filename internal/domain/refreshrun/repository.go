package refreshrun

import "context"

// Repository keeps recent refresh runs for operator introspection.
type Repository interface {
	Record(ctx context.Context, run Run) error
	GetByID(ctx context.Context, runID string) (Run, bool, error)
	ListRecent(ctx context.Context, limit int) ([]Run, error)
}
