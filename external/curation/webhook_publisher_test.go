package curation

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	domaincuration "github.com/draftradar/tipoff/internal/domain/curation"
	"github.com/draftradar/tipoff/internal/platform/logging"
	"github.com/draftradar/tipoff/internal/platform/resilience"
)

func sampleEvent() domaincuration.AuditEvent {
	return domaincuration.AuditEvent{
		ID:        "evt-001",
		Kind:      domaincuration.KindUnmatchedFixture,
		ScopeKey:  "league_day|euroleague|2026-03-14|2026-03-14|probasket",
		DedupKey:  "2026-03-14|asvel|unknown",
		RawNames:  []string{"Unknown Club BC"},
		CreatedAt: time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC),
	}
}

func TestPublish_SendsEventWithIdempotencyHeader(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("X-Curation-Event-Id"); got != "evt-001" {
			t.Fatalf("unexpected idempotency header: %s", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer hook-token" {
			t.Fatalf("unexpected authorization header: %s", got)
		}

		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		var payload map[string]any
		if err := sonic.Unmarshal(raw, &payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if payload["kind"] != "unmatched_fixture" {
			t.Fatalf("unexpected kind: %v", payload["kind"])
		}
		if payload["created_at"] != "2026-03-14T21:00:00Z" {
			t.Fatalf("unexpected created_at: %v", payload["created_at"])
		}

		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	publisher := NewWebhookPublisher(WebhookPublisherConfig{
		URL:            srv.URL,
		Token:          "hook-token",
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	}, logging.NewNop())

	if err := publisher.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
}

func TestPublish_NonRetryableStatusIsNotTransient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error": "schema mismatch"}`))
	}))
	defer srv.Close()

	publisher := NewWebhookPublisher(WebhookPublisherConfig{
		URL: srv.URL,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, logging.NewNop())

	if err := publisher.Publish(context.Background(), sampleEvent()); err == nil {
		t.Fatal("expected publish error for 422")
	}
	// A schema mismatch is the sender's fault; the breaker must stay closed.
	if state := publisher.Breaker().State(); state != resilience.CircuitStateClosed {
		t.Fatalf("expected closed breaker after non-transient failure, got %v", state)
	}
}

func TestPublish_TransientFailureOpensBreaker(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	publisher := NewWebhookPublisher(WebhookPublisherConfig{
		URL: srv.URL,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, logging.NewNop())

	if err := publisher.Publish(context.Background(), sampleEvent()); err == nil {
		t.Fatal("expected publish error for 503")
	}
	if state := publisher.Breaker().State(); state != resilience.CircuitStateOpen {
		t.Fatalf("expected open breaker after transient failure, got %v", state)
	}

	err := publisher.Publish(context.Background(), sampleEvent())
	if err == nil || !strings.Contains(err.Error(), "temporarily unavailable") {
		t.Fatalf("expected breaker rejection, got: %v", err)
	}
}

func TestPublish_RejectsInvalidURL(t *testing.T) {
	t.Parallel()

	publisher := NewWebhookPublisher(WebhookPublisherConfig{
		URL:            "ftp://curation.internal/hook",
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	}, logging.NewNop())

	err := publisher.Publish(context.Background(), sampleEvent())
	if err == nil || !strings.Contains(err.Error(), "unsupported scheme") {
		t.Fatalf("expected scheme error, got: %v", err)
	}
}
