package prospect

import "context"

// Repository describes prospect persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Prospect, error)
	ListTracked(ctx context.Context) ([]Prospect, error)
	GetByID(ctx context.Context, prospectID string) (Prospect, bool, error)
}
