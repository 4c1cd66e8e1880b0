package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/draftradar/tipoff/internal/domain/curation"
	"github.com/draftradar/tipoff/internal/platform/id"
	"github.com/draftradar/tipoff/internal/platform/logging"
)

const (
	defaultAuditListLimit = 50
	maxAuditListLimit     = 500
)

type webhookPublisher interface {
	Publish(ctx context.Context, event curation.AuditEvent) error
}

// CurationService is the human-review pipeline: reconciliation outcomes that
// need eyes are appended here and optionally pushed to a webhook. Publishing
// is best-effort; the repository is the source of truth.
type CurationService struct {
	repo      curation.Repository
	publisher webhookPublisher
	ids       id.Generator
	logger    *logging.Logger
	now       func() time.Time
}

func NewCurationService(
	repo curation.Repository,
	publisher webhookPublisher,
	ids id.Generator,
	logger *logging.Logger,
) *CurationService {
	if logger == nil {
		logger = logging.Default()
	}

	return &CurationService{
		repo:      repo,
		publisher: publisher,
		ids:       ids,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Record appends an audit event, assigning ID and CreatedAt when the caller
// left them empty. Webhook publishing happens off the caller's path and its
// failures are logged, never returned: reconciliation must not depend on an
// ops channel being up.
func (s *CurationService) Record(ctx context.Context, event curation.AuditEvent) error {
	ctx, span := startSpan(ctx, "usecase.CurationService.Record")
	defer span.End()

	if event.ID == "" {
		eventID, err := s.ids.NewID()
		if err != nil {
			return fmt.Errorf("new audit event id: %w", err)
		}
		event.ID = eventID
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.repo.Append(ctx, event); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}

	if s.publisher != nil {
		published := event
		go func() {
			if err := s.publisher.Publish(context.Background(), published); err != nil {
				s.logger.Warn("curation webhook publish failed",
					"event_id", published.ID,
					"kind", published.Kind,
					"error", err)
			}
		}()
	}

	return nil
}

func (s *CurationService) ListUnresolved(ctx context.Context, limit int) ([]curation.AuditEvent, error) {
	ctx, span := startSpan(ctx, "usecase.CurationService.ListUnresolved")
	defer span.End()

	if limit <= 0 {
		limit = defaultAuditListLimit
	}
	if limit > maxAuditListLimit {
		limit = maxAuditListLimit
	}

	events, err := s.repo.ListUnresolved(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list unresolved audit events: %w", err)
	}
	return events, nil
}

// Resolve marks an event handled. Resolving an already-resolved event is a
// no-op returning the stored state, so curators can safely retry.
func (s *CurationService) Resolve(ctx context.Context, eventID, note string) (curation.AuditEvent, error) {
	ctx, span := startSpan(ctx, "usecase.CurationService.Resolve")
	defer span.End()

	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return curation.AuditEvent{}, fmt.Errorf("%w: event id is required", ErrInvalidInput)
	}

	event, exists, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return curation.AuditEvent{}, fmt.Errorf("get audit event: %w", err)
	}
	if !exists {
		return curation.AuditEvent{}, fmt.Errorf("%w: audit event=%s", ErrNotFound, eventID)
	}
	if event.Resolved() {
		return event, nil
	}

	resolvedAt := s.now()
	if err := s.repo.MarkResolved(ctx, eventID, note, resolvedAt); err != nil {
		return curation.AuditEvent{}, fmt.Errorf("mark audit event resolved: %w", err)
	}

	event.ResolvedAt = &resolvedAt
	event.ResolvedNote = note
	return event, nil
}
