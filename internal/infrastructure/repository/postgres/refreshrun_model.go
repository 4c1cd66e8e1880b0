package postgres

import "time"

type refreshRunTableModel struct {
	ID          int64     `db:"id"`
	PublicID    string    `db:"public_id"`
	TriggerKind string    `db:"trigger_kind"`
	StartedAt   time.Time `db:"started_at"`
	FinishedAt  time.Time `db:"finished_at"`
	Tasks       []byte    `db:"tasks"`
	CreatedAt   time.Time `db:"created_at"`
}

type refreshRunInsertModel struct {
	PublicID    string    `db:"public_id"`
	TriggerKind string    `db:"trigger_kind"`
	StartedAt   time.Time `db:"started_at"`
	FinishedAt  time.Time `db:"finished_at"`
	Tasks       []byte    `db:"tasks"`
}

// refreshRunTaskRecord is the JSON shape stored in the tasks column.
type refreshRunTaskRecord struct {
	ScopeKey     string `json:"scope_key"`
	Status       string `json:"status"`
	FixtureCount int    `json:"fixture_count"`
	DurationMs   int64  `json:"duration_ms"`
	Message      string `json:"message,omitempty"`
}
