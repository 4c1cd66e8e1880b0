package identity

import "context"

// Repository describes team-identity persistence needs from use cases.
// Writes are idempotent: re-observing a known alias, external ID or league
// membership is not an error.
type Repository interface {
	List(ctx context.Context) ([]TeamIdentity, error)
	GetByFamilyKey(ctx context.Context, familyKey string) (TeamIdentity, bool, error)
	FindFamilyByAlias(ctx context.Context, canonicalKey string) (string, bool, error)
	Create(ctx context.Context, team TeamIdentity) error
	AddAlias(ctx context.Context, familyKey, canonicalKey string) error
	AddExternalID(ctx context.Context, familyKey, provider, externalID string) error
	AddLeague(ctx context.Context, familyKey, leagueID string) error
}
