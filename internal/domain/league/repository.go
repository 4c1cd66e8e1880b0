package league

import "context"

// Repository describes league-catalog persistence needs from use cases.
// The catalog changes through migrations and seeding only, so the interface
// is read-only.
type Repository interface {
	List(ctx context.Context) ([]League, error)
	GetByID(ctx context.Context, leagueID string) (League, bool, error)
}
