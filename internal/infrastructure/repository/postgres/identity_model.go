package postgres

import "time"

type teamIdentityTableModel struct {
	ID          int64      `db:"id"`
	FamilyKey   string     `db:"family_key"`
	DisplayName string     `db:"display_name"`
	LogoURL     string     `db:"logo_url"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

type teamAliasTableModel struct {
	ID           int64     `db:"id"`
	FamilyKey    string    `db:"family_key"`
	CanonicalKey string    `db:"canonical_key"`
	CreatedAt    time.Time `db:"created_at"`
}

type teamExternalIDTableModel struct {
	ID         int64     `db:"id"`
	FamilyKey  string    `db:"family_key"`
	Provider   string    `db:"provider"`
	ExternalID string    `db:"external_id"`
	CreatedAt  time.Time `db:"created_at"`
}

type teamLeagueTableModel struct {
	ID             int64     `db:"id"`
	FamilyKey      string    `db:"family_key"`
	LeaguePublicID string    `db:"league_public_id"`
	CreatedAt      time.Time `db:"created_at"`
}

type teamIdentityInsertModel struct {
	FamilyKey   string `db:"family_key"`
	DisplayName string `db:"display_name"`
	LogoURL     string `db:"logo_url"`
}

type teamAliasInsertModel struct {
	FamilyKey    string `db:"family_key"`
	CanonicalKey string `db:"canonical_key"`
}

type teamExternalIDInsertModel struct {
	FamilyKey  string `db:"family_key"`
	Provider   string `db:"provider"`
	ExternalID string `db:"external_id"`
}

type teamLeagueInsertModel struct {
	FamilyKey      string `db:"family_key"`
	LeaguePublicID string `db:"league_public_id"`
}
