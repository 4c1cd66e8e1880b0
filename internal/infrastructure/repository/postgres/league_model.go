package postgres

import (
	"time"

	"github.com/lib/pq"
)

type leagueTableModel struct {
	ID          int64          `db:"id"`
	PublicID    string         `db:"public_id"`
	Name        string         `db:"name"`
	CountryCode string         `db:"country_code"`
	Season      string         `db:"season"`
	VenueTZ     string         `db:"venue_tz"`
	Providers   pq.StringArray `db:"providers"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
	DeletedAt   *time.Time     `db:"deleted_at"`
}
