package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/draftradar/tipoff/internal/domain/identity"
)

// IdentityRepository keeps team identities and the learned-alias index in
// process. Writes are idempotent: re-observing a known alias, external ID or
// league membership is a no-op.
type IdentityRepository struct {
	mu      sync.RWMutex
	items   map[string]identity.TeamIdentity
	aliases map[string]string
	orders  []string
}

func NewIdentityRepository(teams []identity.TeamIdentity) *IdentityRepository {
	r := &IdentityRepository{
		items:   make(map[string]identity.TeamIdentity, len(teams)),
		aliases: make(map[string]string),
	}
	for _, team := range teams {
		r.upsertLocked(team)
	}
	return r
}

func (r *IdentityRepository) List(_ context.Context) ([]identity.TeamIdentity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]identity.TeamIdentity, 0, len(r.orders))
	for _, familyKey := range r.orders {
		out = append(out, cloneIdentity(r.items[familyKey]))
	}
	return out, nil
}

func (r *IdentityRepository) GetByFamilyKey(_ context.Context, familyKey string) (identity.TeamIdentity, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	team, ok := r.items[familyKey]
	if !ok {
		return identity.TeamIdentity{}, false, nil
	}
	return cloneIdentity(team), true, nil
}

func (r *IdentityRepository) FindFamilyByAlias(_ context.Context, canonicalKey string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	familyKey, ok := r.aliases[canonicalKey]
	if !ok {
		return "", false, nil
	}
	return familyKey, true, nil
}

// Create inserts a new identity or merges into an existing one: aliases,
// external IDs and league memberships accumulate, display fields update when
// the incoming value is non-empty.
func (r *IdentityRepository) Create(_ context.Context, team identity.TeamIdentity) error {
	if team.FamilyKey == "" {
		return fmt.Errorf("team identity family key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[team.FamilyKey]
	if !ok {
		r.upsertLocked(team)
		return nil
	}

	if team.DisplayName != "" {
		existing.DisplayName = team.DisplayName
	}
	if team.LogoURL != "" {
		existing.LogoURL = team.LogoURL
	}
	for _, alias := range team.Aliases {
		if !existing.HasAlias(alias) {
			existing.Aliases = append(existing.Aliases, alias)
		}
	}
	for _, leagueID := range team.Leagues {
		if !existing.HasLeague(leagueID) {
			existing.Leagues = append(existing.Leagues, leagueID)
		}
	}
	for provider, externalID := range team.ExternalIDs {
		if existing.ExternalIDs == nil {
			existing.ExternalIDs = make(map[string]string)
		}
		existing.ExternalIDs[provider] = externalID
	}
	r.upsertLocked(existing)
	return nil
}

func (r *IdentityRepository) AddAlias(_ context.Context, familyKey, canonicalKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	team, ok := r.items[familyKey]
	if !ok {
		return fmt.Errorf("team family %q not found", familyKey)
	}
	if team.HasAlias(canonicalKey) {
		return nil
	}

	team.Aliases = append(team.Aliases, canonicalKey)
	r.items[familyKey] = cloneIdentity(team)
	r.aliases[canonicalKey] = familyKey
	return nil
}

func (r *IdentityRepository) AddExternalID(_ context.Context, familyKey, provider, externalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	team, ok := r.items[familyKey]
	if !ok {
		return fmt.Errorf("team family %q not found", familyKey)
	}

	if team.ExternalIDs == nil {
		team.ExternalIDs = make(map[string]string)
	}
	team.ExternalIDs[provider] = externalID
	r.items[familyKey] = cloneIdentity(team)
	return nil
}

func (r *IdentityRepository) AddLeague(_ context.Context, familyKey, leagueID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	team, ok := r.items[familyKey]
	if !ok {
		return fmt.Errorf("team family %q not found", familyKey)
	}
	if team.HasLeague(leagueID) {
		return nil
	}

	team.Leagues = append(team.Leagues, leagueID)
	r.items[familyKey] = cloneIdentity(team)
	return nil
}

func (r *IdentityRepository) upsertLocked(team identity.TeamIdentity) {
	if _, exists := r.items[team.FamilyKey]; !exists {
		r.orders = append(r.orders, team.FamilyKey)
	}
	r.items[team.FamilyKey] = cloneIdentity(team)
	for _, alias := range team.Aliases {
		r.aliases[alias] = team.FamilyKey
	}
}

func cloneIdentity(t identity.TeamIdentity) identity.TeamIdentity {
	copied := t
	copied.Aliases = append([]string(nil), t.Aliases...)
	copied.Leagues = append([]string(nil), t.Leagues...)
	if t.ExternalIDs != nil {
		copied.ExternalIDs = make(map[string]string, len(t.ExternalIDs))
		for provider, externalID := range t.ExternalIDs {
			copied.ExternalIDs[provider] = externalID
		}
	}
	return copied
}
