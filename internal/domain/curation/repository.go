package curation

import (
	"context"
	"time"
)

// Repository describes audit-event persistence needs from use cases.
type Repository interface {
	Append(ctx context.Context, event AuditEvent) error
	ListUnresolved(ctx context.Context, limit int) ([]AuditEvent, error)
	GetByID(ctx context.Context, eventID string) (AuditEvent, bool, error)
	MarkResolved(ctx context.Context, eventID, note string, resolvedAt time.Time) error
}
