package postgres

import "time"

type prospectTableModel struct {
	ID        int64      `db:"id"`
	PublicID  string     `db:"public_id"`
	FullName  string     `db:"full_name"`
	Position  string     `db:"position"`
	Class     string     `db:"class"`
	BirthYear int        `db:"birth_year"`
	FamilyKey string     `db:"family_key"`
	Tracked   bool       `db:"tracked"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}
