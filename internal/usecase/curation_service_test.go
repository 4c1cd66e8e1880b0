package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/draftradar/tipoff/internal/domain/curation"
	"github.com/draftradar/tipoff/internal/infrastructure/repository/memory"
	"github.com/draftradar/tipoff/internal/platform/id"
)

type stubWebhook struct {
	published chan curation.AuditEvent
	err       error
}

func (w *stubWebhook) Publish(_ context.Context, event curation.AuditEvent) error {
	if w.published != nil {
		w.published <- event
	}
	return w.err
}

func unmatchedEvent(scopeKey string) curation.AuditEvent {
	return curation.AuditEvent{
		Kind:     curation.KindUnmatchedFixture,
		ScopeKey: scopeKey,
		DedupKey: "2025-11-14|monaco|unknown team",
		RawNames: []string{"Unknown Team", "AS Monaco"},
	}
}

func TestCurationService_RecordAssignsIDAndPublishes(t *testing.T) {
	repo := memory.NewCurationRepository(0)
	webhook := &stubWebhook{published: make(chan curation.AuditEvent, 1)}
	svc := NewCurationService(repo, webhook, id.NewUUIDGenerator(), nil)

	if err := svc.Record(t.Context(), unmatchedEvent("league_day|lnb-proa|2025-11-14|2025-11-14|probasket")); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	events, err := svc.ListUnresolved(t.Context(), 0)
	if err != nil {
		t.Fatalf("list unresolved: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID == "" || events[0].CreatedAt.IsZero() {
		t.Fatalf("record must assign id and timestamp: %+v", events[0])
	}

	select {
	case published := <-webhook.published:
		if published.ID != events[0].ID {
			t.Fatalf("published a different event: %s vs %s", published.ID, events[0].ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("webhook publish never happened")
	}
}

func TestCurationService_RecordRejectsInvalidEvent(t *testing.T) {
	svc := NewCurationService(memory.NewCurationRepository(0), nil, id.NewUUIDGenerator(), nil)

	err := svc.Record(t.Context(), curation.AuditEvent{Kind: "shrug"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCurationService_PublishFailureIsNotPropagated(t *testing.T) {
	repo := memory.NewCurationRepository(0)
	webhook := &stubWebhook{
		published: make(chan curation.AuditEvent, 1),
		err:       errors.New("webhook 503"),
	}
	svc := NewCurationService(repo, webhook, id.NewUUIDGenerator(), nil)

	if err := svc.Record(t.Context(), unmatchedEvent("scope")); err != nil {
		t.Fatalf("a dead webhook must not fail the record: %v", err)
	}

	select {
	case <-webhook.published:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish attempt never happened")
	}
	if repo.Len() != 1 {
		t.Fatalf("event must be stored regardless of the webhook")
	}
}

func TestCurationService_ResolveIsIdempotent(t *testing.T) {
	repo := memory.NewCurationRepository(0)
	svc := NewCurationService(repo, nil, id.NewUUIDGenerator(), nil)

	if err := svc.Record(t.Context(), unmatchedEvent("scope")); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	events, _ := svc.ListUnresolved(t.Context(), 0)
	eventID := events[0].ID

	first, err := svc.Resolve(t.Context(), eventID, "registered alias")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !first.Resolved() || first.ResolvedNote != "registered alias" {
		t.Fatalf("event not marked resolved: %+v", first)
	}

	second, err := svc.Resolve(t.Context(), eventID, "different note")
	if err != nil {
		t.Fatalf("second resolve must be a no-op: %v", err)
	}
	if !second.ResolvedAt.Equal(*first.ResolvedAt) || second.ResolvedNote != first.ResolvedNote {
		t.Fatalf("second resolve must return the stored state: %+v", second)
	}

	remaining, _ := svc.ListUnresolved(t.Context(), 0)
	if len(remaining) != 0 {
		t.Fatalf("resolved events must leave the queue, got %d", len(remaining))
	}
}

func TestCurationService_ResolveMissingEvent(t *testing.T) {
	svc := NewCurationService(memory.NewCurationRepository(0), nil, id.NewUUIDGenerator(), nil)

	if _, err := svc.Resolve(t.Context(), "nope", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Resolve(t.Context(), "  ", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCurationService_ListLimitClamps(t *testing.T) {
	repo := memory.NewCurationRepository(0)
	svc := NewCurationService(repo, nil, id.NewUUIDGenerator(), nil)

	for i := 0; i < defaultAuditListLimit+10; i++ {
		if err := svc.Record(t.Context(), unmatchedEvent("scope")); err != nil {
			t.Fatalf("record %d failed: %v", i, err)
		}
	}

	events, err := svc.ListUnresolved(t.Context(), 0)
	if err != nil {
		t.Fatalf("list unresolved: %v", err)
	}
	if len(events) != defaultAuditListLimit {
		t.Fatalf("zero limit must clamp to the default, got %d", len(events))
	}
}
