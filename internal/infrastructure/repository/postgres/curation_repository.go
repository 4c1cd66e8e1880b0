package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/draftradar/tipoff/internal/domain/curation"
	qb "github.com/draftradar/tipoff/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

// CurationRepository persists the append-only audit feed. Events are never
// deleted; resolving one stamps resolved_at and keeps the row.
type CurationRepository struct {
	db *sqlx.DB
}

func NewCurationRepository(db *sqlx.DB) *CurationRepository {
	return &CurationRepository{db: db}
}

func (r *CurationRepository) Append(ctx context.Context, event curation.AuditEvent) error {
	insertModel := auditEventInsertModel{
		PublicID:         event.ID,
		Kind:             event.Kind,
		ScopeKey:         event.ScopeKey,
		DedupKey:         event.DedupKey,
		RawNames:         event.RawNames,
		Confidence:       event.Confidence,
		ProspectPublicID: event.ProspectID,
		CreatedAt:        event.CreatedAt.UTC(),
	}

	query, args, err := qb.InsertModel("audit_events", insertModel, "ON CONFLICT (public_id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert audit event query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit event %s: %w", event.ID, err)
	}

	return nil
}

func (r *CurationRepository) ListUnresolved(ctx context.Context, limit int) ([]curation.AuditEvent, error) {
	query, args, err := qb.Select("*").From("audit_events").
		Where(qb.IsNull("resolved_at")).
		OrderBy("created_at", "id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select unresolved audit events query: %w", err)
	}

	var rows []auditEventTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select unresolved audit events: %w", err)
	}

	out := make([]curation.AuditEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, auditEventFromRow(row))
	}
	return out, nil
}

func (r *CurationRepository) GetByID(ctx context.Context, eventID string) (curation.AuditEvent, bool, error) {
	query, args, err := qb.Select("*").From("audit_events").
		Where(qb.Eq("public_id", eventID)).
		ToSQL()
	if err != nil {
		return curation.AuditEvent{}, false, fmt.Errorf("build get audit event query: %w", err)
	}

	var row auditEventTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return curation.AuditEvent{}, false, nil
		}
		return curation.AuditEvent{}, false, fmt.Errorf("get audit event: %w", err)
	}

	return auditEventFromRow(row), true, nil
}

func (r *CurationRepository) MarkResolved(ctx context.Context, eventID, note string, resolvedAt time.Time) error {
	query, args, err := qb.Update("audit_events").
		Set("resolved_at", resolvedAt.UTC()).
		Set("resolved_note", note).
		Where(
			qb.Eq("public_id", eventID),
			qb.IsNull("resolved_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark audit event resolved query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark audit event %s resolved: %w", eventID, err)
	}

	return nil
}

func auditEventFromRow(row auditEventTableModel) curation.AuditEvent {
	return curation.AuditEvent{
		ID:           row.PublicID,
		Kind:         row.Kind,
		ScopeKey:     row.ScopeKey,
		DedupKey:     row.DedupKey,
		RawNames:     append([]string(nil), row.RawNames...),
		Confidence:   row.Confidence,
		ProspectID:   row.ProspectPublicID,
		ResolvedAt:   row.ResolvedAt,
		ResolvedNote: row.ResolvedNote,
		CreatedAt:    row.CreatedAt,
	}
}
