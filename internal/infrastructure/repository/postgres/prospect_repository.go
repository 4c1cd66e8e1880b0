package postgres

import (
	"context"
	"fmt"

	"github.com/draftradar/tipoff/internal/domain/prospect"
	qb "github.com/draftradar/tipoff/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type ProspectRepository struct {
	db *sqlx.DB
}

func NewProspectRepository(db *sqlx.DB) *ProspectRepository {
	return &ProspectRepository{db: db}
}

func (r *ProspectRepository) List(ctx context.Context) ([]prospect.Prospect, error) {
	query, args, err := qb.Select("*").From("prospects").
		Where(qb.IsNull("deleted_at")).
		OrderBy("full_name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select prospects query: %w", err)
	}

	var rows []prospectTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select prospects: %w", err)
	}

	return prospectsFromRows(rows), nil
}

func (r *ProspectRepository) ListTracked(ctx context.Context) ([]prospect.Prospect, error) {
	query, args, err := qb.Select("*").From("prospects").
		Where(
			qb.Eq("tracked", true),
			qb.IsNull("deleted_at"),
		).
		OrderBy("full_name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select tracked prospects query: %w", err)
	}

	var rows []prospectTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select tracked prospects: %w", err)
	}

	return prospectsFromRows(rows), nil
}

func (r *ProspectRepository) GetByID(ctx context.Context, prospectID string) (prospect.Prospect, bool, error) {
	query, args, err := qb.Select("*").From("prospects").
		Where(
			qb.Eq("public_id", prospectID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return prospect.Prospect{}, false, fmt.Errorf("build get prospect by id query: %w", err)
	}

	var row prospectTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return prospect.Prospect{}, false, nil
		}
		return prospect.Prospect{}, false, fmt.Errorf("get prospect by id: %w", err)
	}

	return prospectFromRow(row), true, nil
}

func prospectsFromRows(rows []prospectTableModel) []prospect.Prospect {
	out := make([]prospect.Prospect, 0, len(rows))
	for _, row := range rows {
		out = append(out, prospectFromRow(row))
	}
	return out
}

func prospectFromRow(row prospectTableModel) prospect.Prospect {
	return prospect.Prospect{
		ID:        row.PublicID,
		FullName:  row.FullName,
		Position:  prospect.Position(row.Position),
		Class:     row.Class,
		BirthYear: row.BirthYear,
		FamilyKey: row.FamilyKey,
		Tracked:   row.Tracked,
	}
}
