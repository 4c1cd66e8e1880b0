package postgres

import (
	"time"

	"github.com/lib/pq"
)

type auditEventTableModel struct {
	ID               int64          `db:"id"`
	PublicID         string         `db:"public_id"`
	Kind             string         `db:"kind"`
	ScopeKey         string         `db:"scope_key"`
	DedupKey         string         `db:"dedup_key"`
	RawNames         pq.StringArray `db:"raw_names"`
	Confidence       string         `db:"confidence"`
	ProspectPublicID string         `db:"prospect_public_id"`
	ResolvedAt       *time.Time     `db:"resolved_at"`
	ResolvedNote     string         `db:"resolved_note"`
	CreatedAt        time.Time      `db:"created_at"`
}

type auditEventInsertModel struct {
	PublicID         string         `db:"public_id"`
	Kind             string         `db:"kind"`
	ScopeKey         string         `db:"scope_key"`
	DedupKey         string         `db:"dedup_key"`
	RawNames         pq.StringArray `db:"raw_names"`
	Confidence       string         `db:"confidence"`
	ProspectPublicID string         `db:"prospect_public_id"`
	CreatedAt        time.Time      `db:"created_at"`
}
