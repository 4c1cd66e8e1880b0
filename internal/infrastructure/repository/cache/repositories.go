package cache

import (
	"context"

	"github.com/draftradar/tipoff/internal/domain/identity"
	"github.com/draftradar/tipoff/internal/domain/league"
	"github.com/draftradar/tipoff/internal/domain/prospect"
	basecache "github.com/draftradar/tipoff/internal/platform/cache"
)

// LeagueRepository memoizes catalog lookups. The league catalog only changes
// through seeds and migrations, so there is no write path to invalidate.
type LeagueRepository struct {
	next league.Repository
	memo *basecache.Memo
}

func NewLeagueRepository(next league.Repository, memo *basecache.Memo) *LeagueRepository {
	return &LeagueRepository{next: next, memo: memo}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	v, err := r.memo.GetOrLoad(ctx, "league:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]league.League, 0, len(items))
		for _, item := range items {
			out = append(out, cloneLeague(item))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]league.League)
	out := make([]league.League, 0, len(items))
	for _, item := range items {
		out = append(out, cloneLeague(item))
	}
	return out, nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	key := "league:id:" + leagueID
	v, err := r.memo.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, leagueID)
		if err != nil {
			return nil, err
		}
		return cachedLeagueByID{value: cloneLeague(item), exists: exists}, nil
	})
	if err != nil {
		return league.League{}, false, err
	}

	cached, _ := v.(cachedLeagueByID)
	return cloneLeague(cached.value), cached.exists, nil
}

type cachedLeagueByID struct {
	value  league.League
	exists bool
}

func cloneLeague(item league.League) league.League {
	out := item
	out.Providers = append([]string(nil), item.Providers...)
	return out
}

type ProspectRepository struct {
	next prospect.Repository
	memo *basecache.Memo
}

func NewProspectRepository(next prospect.Repository, memo *basecache.Memo) *ProspectRepository {
	return &ProspectRepository{next: next, memo: memo}
}

func (r *ProspectRepository) List(ctx context.Context) ([]prospect.Prospect, error) {
	v, err := r.memo.GetOrLoad(ctx, "prospect:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]prospect.Prospect(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]prospect.Prospect)
	return append([]prospect.Prospect(nil), items...), nil
}

func (r *ProspectRepository) ListTracked(ctx context.Context) ([]prospect.Prospect, error) {
	v, err := r.memo.GetOrLoad(ctx, "prospect:tracked", func(ctx context.Context) (any, error) {
		items, err := r.next.ListTracked(ctx)
		if err != nil {
			return nil, err
		}
		return append([]prospect.Prospect(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]prospect.Prospect)
	return append([]prospect.Prospect(nil), items...), nil
}

func (r *ProspectRepository) GetByID(ctx context.Context, prospectID string) (prospect.Prospect, bool, error) {
	key := "prospect:id:" + prospectID
	v, err := r.memo.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, prospectID)
		if err != nil {
			return nil, err
		}
		return cachedProspectByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return prospect.Prospect{}, false, err
	}

	cached, _ := v.(cachedProspectByID)
	return cached.value, cached.exists, nil
}

type cachedProspectByID struct {
	value  prospect.Prospect
	exists bool
}

// IdentityRepository memoizes identity lookups and invalidates on writes.
// Alias resolution sits on the reconcile hot path, so misses are cached
// alongside hits to spare the backing store repeated lookups of names that
// never resolve.
type IdentityRepository struct {
	next identity.Repository
	memo *basecache.Memo
}

func NewIdentityRepository(next identity.Repository, memo *basecache.Memo) *IdentityRepository {
	return &IdentityRepository{next: next, memo: memo}
}

func (r *IdentityRepository) List(ctx context.Context) ([]identity.TeamIdentity, error) {
	v, err := r.memo.GetOrLoad(ctx, "identity:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]identity.TeamIdentity, 0, len(items))
		for _, item := range items {
			out = append(out, cloneTeamIdentity(item))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]identity.TeamIdentity)
	out := make([]identity.TeamIdentity, 0, len(items))
	for _, item := range items {
		out = append(out, cloneTeamIdentity(item))
	}
	return out, nil
}

func (r *IdentityRepository) GetByFamilyKey(ctx context.Context, familyKey string) (identity.TeamIdentity, bool, error) {
	v, err := r.memo.GetOrLoad(ctx, identityFamilyKey(familyKey), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByFamilyKey(ctx, familyKey)
		if err != nil {
			return nil, err
		}
		return cachedTeamIdentityByFamily{value: cloneTeamIdentity(item), exists: exists}, nil
	})
	if err != nil {
		return identity.TeamIdentity{}, false, err
	}

	cached, _ := v.(cachedTeamIdentityByFamily)
	return cloneTeamIdentity(cached.value), cached.exists, nil
}

func (r *IdentityRepository) FindFamilyByAlias(ctx context.Context, canonicalKey string) (string, bool, error) {
	v, err := r.memo.GetOrLoad(ctx, identityAliasKey(canonicalKey), func(ctx context.Context) (any, error) {
		familyKey, exists, err := r.next.FindFamilyByAlias(ctx, canonicalKey)
		if err != nil {
			return nil, err
		}
		return cachedFamilyByAlias{familyKey: familyKey, exists: exists}, nil
	})
	if err != nil {
		return "", false, err
	}

	cached, _ := v.(cachedFamilyByAlias)
	return cached.familyKey, cached.exists, nil
}

func (r *IdentityRepository) Create(ctx context.Context, team identity.TeamIdentity) error {
	if err := r.next.Create(ctx, team); err != nil {
		return err
	}

	r.memo.Delete(ctx, "identity:list")
	r.memo.Delete(ctx, identityFamilyKey(team.FamilyKey))
	for _, canonicalKey := range team.Aliases {
		r.memo.Delete(ctx, identityAliasKey(canonicalKey))
	}
	return nil
}

func (r *IdentityRepository) AddAlias(ctx context.Context, familyKey, canonicalKey string) error {
	if err := r.next.AddAlias(ctx, familyKey, canonicalKey); err != nil {
		return err
	}

	r.memo.Delete(ctx, "identity:list")
	r.memo.Delete(ctx, identityFamilyKey(familyKey))
	r.memo.Delete(ctx, identityAliasKey(canonicalKey))
	return nil
}

func (r *IdentityRepository) AddExternalID(ctx context.Context, familyKey, provider, externalID string) error {
	if err := r.next.AddExternalID(ctx, familyKey, provider, externalID); err != nil {
		return err
	}

	r.memo.Delete(ctx, "identity:list")
	r.memo.Delete(ctx, identityFamilyKey(familyKey))
	return nil
}

func (r *IdentityRepository) AddLeague(ctx context.Context, familyKey, leagueID string) error {
	if err := r.next.AddLeague(ctx, familyKey, leagueID); err != nil {
		return err
	}

	r.memo.Delete(ctx, "identity:list")
	r.memo.Delete(ctx, identityFamilyKey(familyKey))
	return nil
}

type cachedTeamIdentityByFamily struct {
	value  identity.TeamIdentity
	exists bool
}

type cachedFamilyByAlias struct {
	familyKey string
	exists    bool
}

func cloneTeamIdentity(item identity.TeamIdentity) identity.TeamIdentity {
	out := item
	out.Aliases = append([]string(nil), item.Aliases...)
	out.Leagues = append([]string(nil), item.Leagues...)
	if item.ExternalIDs != nil {
		out.ExternalIDs = make(map[string]string, len(item.ExternalIDs))
		for provider, externalID := range item.ExternalIDs {
			out.ExternalIDs[provider] = externalID
		}
	}
	return out
}

func identityFamilyKey(familyKey string) string {
	return "identity:family:" + familyKey
}

func identityAliasKey(canonicalKey string) string {
	return "identity:alias:" + canonicalKey
}
