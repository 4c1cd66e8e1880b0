package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/draftradar/tipoff/internal/domain/identity"
)

// Resolution is what the resolver knows about one raw team name.
type Resolution struct {
	RawName      string
	CanonicalKey string
	FamilyKey    string
	Confidence   identity.Confidence
	Known        bool
	Identity     identity.TeamIdentity
}

// IdentityService resolves raw team names onto team families. The alias
// table inside cfg is immutable startup configuration; aliases observed at
// runtime accumulate in the repository and are consulted as a fallback.
type IdentityService struct {
	repo identity.Repository
	cfg  identity.Config
}

func NewIdentityService(repo identity.Repository, cfg identity.Config) *IdentityService {
	return &IdentityService{
		repo: repo,
		cfg:  cfg,
	}
}

// Config exposes the matcher configuration so callers share one alias table.
func (s *IdentityService) Config() identity.Config {
	return s.cfg
}

func (s *IdentityService) Resolve(ctx context.Context, rawName string) (Resolution, error) {
	ctx, span := startSpan(ctx, "usecase.IdentityService.Resolve")
	defer span.End()

	rawName = strings.TrimSpace(rawName)
	if rawName == "" {
		return Resolution{}, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}

	canonical := identity.Normalize(rawName, s.cfg)
	familyKey, confidence, err := s.familyOf(ctx, canonical)
	if err != nil {
		return Resolution{}, err
	}

	res := Resolution{
		RawName:      rawName,
		CanonicalKey: canonical,
		FamilyKey:    familyKey,
		Confidence:   confidence,
	}

	team, exists, err := s.repo.GetByFamilyKey(ctx, familyKey)
	if err != nil {
		return Resolution{}, fmt.Errorf("get team identity: %w", err)
	}
	if exists {
		res.Known = true
		res.Identity = team
	}
	return res, nil
}

// FamilyOf maps a raw name to its family key: configured alias table first,
// then aliases registered at runtime, then the canonical key itself.
func (s *IdentityService) FamilyOf(ctx context.Context, rawName string) (string, error) {
	canonical := identity.Normalize(rawName, s.cfg)
	familyKey, _, err := s.familyOf(ctx, canonical)
	return familyKey, err
}

func (s *IdentityService) familyOf(ctx context.Context, canonical string) (string, identity.Confidence, error) {
	if familyKey := identity.FamilyKey(canonical, s.cfg); familyKey != canonical {
		return familyKey, identity.ConfidenceAlias, nil
	}
	familyKey, found, err := s.repo.FindFamilyByAlias(ctx, canonical)
	if err != nil {
		return "", "", fmt.Errorf("find family by alias: %w", err)
	}
	if found && familyKey != canonical {
		return familyKey, identity.ConfidenceAlias, nil
	}
	return canonical, identity.ConfidenceExact, nil
}

func (s *IdentityService) ListTeams(ctx context.Context) ([]identity.TeamIdentity, error) {
	ctx, span := startSpan(ctx, "usecase.IdentityService.ListTeams")
	defer span.End()

	teams, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list team identities: %w", err)
	}
	return teams, nil
}

func (s *IdentityService) GetTeam(ctx context.Context, familyKey string) (identity.TeamIdentity, error) {
	ctx, span := startSpan(ctx, "usecase.IdentityService.GetTeam")
	defer span.End()

	familyKey = identity.Normalize(familyKey, s.cfg)
	if familyKey == "" {
		return identity.TeamIdentity{}, fmt.Errorf("%w: family key is required", ErrInvalidInput)
	}

	team, exists, err := s.repo.GetByFamilyKey(ctx, familyKey)
	if err != nil {
		return identity.TeamIdentity{}, fmt.Errorf("get team identity: %w", err)
	}
	if !exists {
		return identity.TeamIdentity{}, fmt.Errorf("%w: team=%s", ErrNotFound, familyKey)
	}
	return team, nil
}

// LookupFamily is GetTeam without the not-found error, for callers that
// treat an unknown family as data rather than failure.
func (s *IdentityService) LookupFamily(ctx context.Context, familyKey string) (identity.TeamIdentity, bool, error) {
	team, exists, err := s.repo.GetByFamilyKey(ctx, familyKey)
	if err != nil {
		return identity.TeamIdentity{}, false, fmt.Errorf("get team identity: %w", err)
	}
	return team, exists, nil
}

// RegisterAlias records that rawAlias was observed referring to familyKey.
// Re-registering a known alias is a no-op.
func (s *IdentityService) RegisterAlias(ctx context.Context, familyKey, rawAlias string) error {
	ctx, span := startSpan(ctx, "usecase.IdentityService.RegisterAlias")
	defer span.End()

	familyKey = identity.Normalize(familyKey, s.cfg)
	canonical := identity.Normalize(rawAlias, s.cfg)
	if familyKey == "" || canonical == "" {
		return fmt.Errorf("%w: family key and alias are required", ErrInvalidInput)
	}
	if canonical == familyKey {
		return nil
	}

	if _, err := s.GetTeam(ctx, familyKey); err != nil {
		return err
	}
	if err := s.repo.AddAlias(ctx, familyKey, canonical); err != nil {
		return fmt.Errorf("add alias: %w", err)
	}
	return nil
}

// RegisterExternalID attaches a provider-native team ID to a family.
func (s *IdentityService) RegisterExternalID(ctx context.Context, familyKey, provider, externalID string) error {
	ctx, span := startSpan(ctx, "usecase.IdentityService.RegisterExternalID")
	defer span.End()

	familyKey = identity.Normalize(familyKey, s.cfg)
	provider = strings.TrimSpace(provider)
	externalID = strings.TrimSpace(externalID)
	if familyKey == "" || provider == "" || externalID == "" {
		return fmt.Errorf("%w: family key, provider and external id are required", ErrInvalidInput)
	}

	if _, err := s.GetTeam(ctx, familyKey); err != nil {
		return err
	}
	if err := s.repo.AddExternalID(ctx, familyKey, provider, externalID); err != nil {
		return fmt.Errorf("add external id: %w", err)
	}
	return nil
}
