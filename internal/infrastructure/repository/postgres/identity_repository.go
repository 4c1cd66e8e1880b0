package postgres

import (
	"context"
	"fmt"

	"github.com/draftradar/tipoff/internal/domain/identity"
	qb "github.com/draftradar/tipoff/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

// IdentityRepository persists team identities across four tables: the
// identity row plus append-only alias, external-ID and league-membership
// rows. Writes are idempotent upserts so re-observing a known mapping is
// never an error.
type IdentityRepository struct {
	db *sqlx.DB
}

func NewIdentityRepository(db *sqlx.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) List(ctx context.Context) ([]identity.TeamIdentity, error) {
	query, args, err := qb.Select("*").From("team_identities").
		Where(qb.IsNull("deleted_at")).
		OrderBy("family_key").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select team identities query: %w", err)
	}

	var rows []teamIdentityTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select team identities: %w", err)
	}

	teams := make(map[string]*identity.TeamIdentity, len(rows))
	order := make([]string, 0, len(rows))
	for _, row := range rows {
		teams[row.FamilyKey] = &identity.TeamIdentity{
			FamilyKey:   row.FamilyKey,
			DisplayName: row.DisplayName,
			LogoURL:     row.LogoURL,
		}
		order = append(order, row.FamilyKey)
	}

	if err := r.attachDetails(ctx, teams, ""); err != nil {
		return nil, err
	}

	out := make([]identity.TeamIdentity, 0, len(order))
	for _, familyKey := range order {
		out = append(out, *teams[familyKey])
	}
	return out, nil
}

func (r *IdentityRepository) GetByFamilyKey(ctx context.Context, familyKey string) (identity.TeamIdentity, bool, error) {
	query, args, err := qb.Select("*").From("team_identities").
		Where(
			qb.Eq("family_key", familyKey),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return identity.TeamIdentity{}, false, fmt.Errorf("build get team identity query: %w", err)
	}

	var row teamIdentityTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return identity.TeamIdentity{}, false, nil
		}
		return identity.TeamIdentity{}, false, fmt.Errorf("get team identity: %w", err)
	}

	team := identity.TeamIdentity{
		FamilyKey:   row.FamilyKey,
		DisplayName: row.DisplayName,
		LogoURL:     row.LogoURL,
	}
	teams := map[string]*identity.TeamIdentity{team.FamilyKey: &team}
	if err := r.attachDetails(ctx, teams, familyKey); err != nil {
		return identity.TeamIdentity{}, false, err
	}

	return team, true, nil
}

func (r *IdentityRepository) FindFamilyByAlias(ctx context.Context, canonicalKey string) (string, bool, error) {
	query, args, err := qb.Select("family_key").From("team_aliases").
		Where(qb.Eq("canonical_key", canonicalKey)).
		Limit(1).
		ToSQL()
	if err != nil {
		return "", false, fmt.Errorf("build find family by alias query: %w", err)
	}

	var familyKey string
	if err := r.db.GetContext(ctx, &familyKey, query, args...); err != nil {
		if isBindParameterMismatch(err) || isUnnamedPreparedStatementMissing(err) {
			return r.findFamilyByAliasLiteral(ctx, canonicalKey)
		}
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("find family by alias: %w", err)
	}

	return familyKey, true, nil
}

// findFamilyByAliasLiteral retries the alias lookup with the value inlined.
// Poolers in transaction mode can drop the unnamed prepared statement between
// Parse and Bind, which surfaces as 08P01/26000 errors on the hot path.
func (r *IdentityRepository) findFamilyByAliasLiteral(ctx context.Context, canonicalKey string) (string, bool, error) {
	query, args, err := qb.Select("family_key").From("team_aliases").
		Where(qb.EqLiteral("canonical_key", canonicalKey)).
		Limit(1).
		ToSQL()
	if err != nil {
		return "", false, fmt.Errorf("build find family by alias literal fallback query: %w", err)
	}

	var familyKey string
	if err := r.db.GetContext(ctx, &familyKey, query, args...); err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("find family by alias literal fallback: %w", err)
	}

	return familyKey, true, nil
}

// Create inserts a new identity or merges into an existing one: aliases,
// external IDs and league memberships accumulate, display fields update when
// the incoming value is non-empty.
func (r *IdentityRepository) Create(ctx context.Context, team identity.TeamIdentity) error {
	if team.FamilyKey == "" {
		return fmt.Errorf("team identity family key is required")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx create team identity: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insertModel := teamIdentityInsertModel{
		FamilyKey:   team.FamilyKey,
		DisplayName: team.DisplayName,
		LogoURL:     team.LogoURL,
	}
	query, args, err := qb.InsertModel("team_identities", insertModel, `ON CONFLICT (family_key) WHERE deleted_at IS NULL
DO UPDATE SET
    display_name = CASE
        WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name
        ELSE team_identities.display_name
    END,
    logo_url = CASE
        WHEN EXCLUDED.logo_url <> '' THEN EXCLUDED.logo_url
        ELSE team_identities.logo_url
    END,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert team identity query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert team identity %s: %w", team.FamilyKey, err)
	}

	for _, canonicalKey := range team.Aliases {
		if err := insertAlias(ctx, tx, team.FamilyKey, canonicalKey); err != nil {
			return err
		}
	}
	for provider, externalID := range team.ExternalIDs {
		if err := insertExternalID(ctx, tx, team.FamilyKey, provider, externalID); err != nil {
			return err
		}
	}
	for _, leagueID := range team.Leagues {
		if err := insertLeagueMembership(ctx, tx, team.FamilyKey, leagueID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create team identity tx: %w", err)
	}

	return nil
}

func (r *IdentityRepository) AddAlias(ctx context.Context, familyKey, canonicalKey string) error {
	if err := r.requireFamily(ctx, familyKey); err != nil {
		return err
	}
	return insertAlias(ctx, r.db, familyKey, canonicalKey)
}

func (r *IdentityRepository) AddExternalID(ctx context.Context, familyKey, provider, externalID string) error {
	if err := r.requireFamily(ctx, familyKey); err != nil {
		return err
	}
	return insertExternalID(ctx, r.db, familyKey, provider, externalID)
}

func (r *IdentityRepository) AddLeague(ctx context.Context, familyKey, leagueID string) error {
	if err := r.requireFamily(ctx, familyKey); err != nil {
		return err
	}
	return insertLeagueMembership(ctx, r.db, familyKey, leagueID)
}

func (r *IdentityRepository) requireFamily(ctx context.Context, familyKey string) error {
	query, args, err := qb.Select("COUNT(1)").From("team_identities").
		Where(
			qb.Eq("family_key", familyKey),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build team identity exists query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return fmt.Errorf("check team identity exists: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("team family %q not found", familyKey)
	}
	return nil
}

// attachDetails loads aliases, external IDs and league memberships for the
// given identities. An empty familyKey loads rows for every family.
func (r *IdentityRepository) attachDetails(ctx context.Context, teams map[string]*identity.TeamIdentity, familyKey string) error {
	scoped := func(b *qb.SelectBuilder) *qb.SelectBuilder {
		if familyKey != "" {
			return b.Where(qb.Eq("family_key", familyKey))
		}
		return b
	}

	query, args, err := scoped(qb.Select("*").From("team_aliases")).OrderBy("id").ToSQL()
	if err != nil {
		return fmt.Errorf("build select team aliases query: %w", err)
	}
	var aliasRows []teamAliasTableModel
	if err := r.db.SelectContext(ctx, &aliasRows, query, args...); err != nil {
		return fmt.Errorf("select team aliases: %w", err)
	}
	for _, row := range aliasRows {
		if team, ok := teams[row.FamilyKey]; ok {
			team.Aliases = append(team.Aliases, row.CanonicalKey)
		}
	}

	query, args, err = scoped(qb.Select("*").From("team_external_ids")).OrderBy("id").ToSQL()
	if err != nil {
		return fmt.Errorf("build select team external ids query: %w", err)
	}
	var externalRows []teamExternalIDTableModel
	if err := r.db.SelectContext(ctx, &externalRows, query, args...); err != nil {
		return fmt.Errorf("select team external ids: %w", err)
	}
	for _, row := range externalRows {
		team, ok := teams[row.FamilyKey]
		if !ok {
			continue
		}
		if team.ExternalIDs == nil {
			team.ExternalIDs = make(map[string]string)
		}
		team.ExternalIDs[row.Provider] = row.ExternalID
	}

	query, args, err = scoped(qb.Select("*").From("team_leagues")).OrderBy("id").ToSQL()
	if err != nil {
		return fmt.Errorf("build select team leagues query: %w", err)
	}
	var leagueRows []teamLeagueTableModel
	if err := r.db.SelectContext(ctx, &leagueRows, query, args...); err != nil {
		return fmt.Errorf("select team leagues: %w", err)
	}
	for _, row := range leagueRows {
		if team, ok := teams[row.FamilyKey]; ok {
			team.Leagues = append(team.Leagues, row.LeaguePublicID)
		}
	}

	return nil
}

func insertAlias(ctx context.Context, execer sqlx.ExtContext, familyKey, canonicalKey string) error {
	insertModel := teamAliasInsertModel{FamilyKey: familyKey, CanonicalKey: canonicalKey}
	query, args, err := qb.InsertModel("team_aliases", insertModel, "ON CONFLICT (canonical_key) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert team alias query: %w", err)
	}
	if _, err := execer.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert team alias %s -> %s: %w", canonicalKey, familyKey, err)
	}
	return nil
}

func insertExternalID(ctx context.Context, execer sqlx.ExtContext, familyKey, provider, externalID string) error {
	insertModel := teamExternalIDInsertModel{FamilyKey: familyKey, Provider: provider, ExternalID: externalID}
	query, args, err := qb.InsertModel("team_external_ids", insertModel, `ON CONFLICT (family_key, provider)
DO UPDATE SET external_id = EXCLUDED.external_id`)
	if err != nil {
		return fmt.Errorf("build insert team external id query: %w", err)
	}
	if _, err := execer.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert team external id %s/%s: %w", familyKey, provider, err)
	}
	return nil
}

func insertLeagueMembership(ctx context.Context, execer sqlx.ExtContext, familyKey, leagueID string) error {
	insertModel := teamLeagueInsertModel{FamilyKey: familyKey, LeaguePublicID: leagueID}
	query, args, err := qb.InsertModel("team_leagues", insertModel, "ON CONFLICT (family_key, league_public_id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert team league query: %w", err)
	}
	if _, err := execer.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert team league %s/%s: %w", familyKey, leagueID, err)
	}
	return nil
}
