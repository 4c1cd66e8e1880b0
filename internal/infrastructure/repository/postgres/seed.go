package postgres

import (
	"context"
	"fmt"

	"github.com/draftradar/tipoff/internal/infrastructure/repository/memory"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// BootstrapSeed loads the curated league catalog, team identities and
// tracked prospects into an empty database. A database that already has
// leagues is left untouched.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM leagues WHERE deleted_at IS NULL`); err != nil {
		return fmt.Errorf("count leagues for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, l := range memory.SeedLeagues() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO leagues (public_id, name, country_code, season, venue_tz, providers)
VALUES (:public_id, :name, :country_code, :season, :venue_tz, :providers)
ON CONFLICT (public_id) WHERE deleted_at IS NULL DO NOTHING`, map[string]any{
			"public_id":    l.ID,
			"name":         l.Name,
			"country_code": l.CountryCode,
			"season":       l.Season,
			"venue_tz":     l.VenueTZ,
			"providers":    pq.Array(l.Providers),
		})
		if err != nil {
			return fmt.Errorf("bind seed league %s query: %w", l.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed league %s: %w", l.ID, err)
		}
	}

	for _, t := range memory.SeedTeamIdentities() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO team_identities (family_key, display_name, logo_url)
VALUES (:family_key, :display_name, :logo_url)
ON CONFLICT (family_key) WHERE deleted_at IS NULL DO NOTHING`, map[string]any{
			"family_key":   t.FamilyKey,
			"display_name": t.DisplayName,
			"logo_url":     t.LogoURL,
		})
		if err != nil {
			return fmt.Errorf("bind seed team identity %s query: %w", t.FamilyKey, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed team identity %s: %w", t.FamilyKey, err)
		}

		for _, canonicalKey := range t.Aliases {
			if err := insertAlias(ctx, tx, t.FamilyKey, canonicalKey); err != nil {
				return err
			}
		}
		for provider, externalID := range t.ExternalIDs {
			if err := insertExternalID(ctx, tx, t.FamilyKey, provider, externalID); err != nil {
				return err
			}
		}
		for _, leagueID := range t.Leagues {
			if err := insertLeagueMembership(ctx, tx, t.FamilyKey, leagueID); err != nil {
				return err
			}
		}
	}

	for _, p := range memory.SeedProspects() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO prospects (public_id, full_name, position, class, birth_year, family_key, tracked)
VALUES (:public_id, :full_name, :position, :class, :birth_year, :family_key, :tracked)
ON CONFLICT (public_id) WHERE deleted_at IS NULL DO NOTHING`, map[string]any{
			"public_id":  p.ID,
			"full_name":  p.FullName,
			"position":   string(p.Position),
			"class":      p.Class,
			"birth_year": p.BirthYear,
			"family_key": p.FamilyKey,
			"tracked":    p.Tracked,
		})
		if err != nil {
			return fmt.Errorf("bind seed prospect %s query: %w", p.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed prospect %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	return nil
}
