package collegefeed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/draftradar/tipoff/internal/platform/logging"
	"github.com/draftradar/tipoff/internal/platform/resilience"
	"github.com/draftradar/tipoff/internal/usecase"
)

func TestFetchFixtures_MapsGamesAndPreservesVenueOffset(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/games" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		query := r.URL.Query()
		if got := query.Get("league"); got != "ncaa-d1" {
			t.Fatalf("unexpected league param: %s", got)
		}
		if got := query.Get("from"); got != "2026-03-10" {
			t.Fatalf("unexpected from param: %s", got)
		}
		if got := query.Get("api_token"); got != "secret-token" {
			t.Fatalf("unexpected api_token param: %s", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"games": [
				{
					"id": "cf-1001",
					"status": "FINAL",
					"tipoff": "2026-03-10T19:00:00-05:00",
					"home": {"id": "t-77", "name": "Duke Blue Devils", "score": 81},
					"away": {"id": "t-12", "name": "North Carolina Tar Heels", "score": 77}
				}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		Token:          "secret-token",
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	res, err := client.FetchFixtures(context.Background(), usecase.FetchRequest{
		LeagueID: "ncaa-d1",
		From:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("fetch fixtures failed: %v", err)
	}
	if res.SkippedRecords != 0 {
		t.Fatalf("expected no skipped records, got=%d", res.SkippedRecords)
	}
	if len(res.Fixtures) != 1 {
		t.Fatalf("expected one fixture, got=%d", len(res.Fixtures))
	}

	fx := res.Fixtures[0]
	if fx.Provider != "collegefeed" {
		t.Fatalf("unexpected provider: %s", fx.Provider)
	}
	if fx.NativeID != "cf-1001" {
		t.Fatalf("unexpected native id: %s", fx.NativeID)
	}
	wantTipoff := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	if !fx.TipoffUTC.Equal(wantTipoff) {
		t.Fatalf("expected tipoff %s, got %s", wantTipoff, fx.TipoffUTC)
	}
	if fx.VenueOffsetMin != -300 {
		t.Fatalf("expected venue offset -300, got=%d", fx.VenueOffsetMin)
	}
	if fx.HomeScore == nil || *fx.HomeScore != 81 {
		t.Fatalf("unexpected home score: %v", fx.HomeScore)
	}
	if fx.AwayScore == nil || *fx.AwayScore != 77 {
		t.Fatalf("unexpected away score: %v", fx.AwayScore)
	}
	if fx.Status != "FINAL" {
		t.Fatalf("unexpected status: %s", fx.Status)
	}
}

func TestFetchFixtures_SkipsMalformedRecords(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"games": [
				{"id": "cf-1", "tipoff": "2026-03-10T19:00:00Z", "home": {"name": "Duke Blue Devils"}, "away": {"name": ""}},
				{"id": "cf-2", "tipoff": "not-a-time", "home": {"name": "Gonzaga Bulldogs"}, "away": {"name": "Baylor Bears"}},
				{"id": "cf-3", "status": "SCHEDULED", "tipoff": "2026-03-10T21:00:00Z", "home": {"name": "Gonzaga Bulldogs"}, "away": {"name": "Baylor Bears"}}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	res, err := client.FetchFixtures(context.Background(), usecase.FetchRequest{
		LeagueID: "ncaa-d1",
		From:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("fetch fixtures failed: %v", err)
	}
	if res.SkippedRecords != 2 {
		t.Fatalf("expected 2 skipped records, got=%d", res.SkippedRecords)
	}
	if len(res.Fixtures) != 1 {
		t.Fatalf("expected one surviving fixture, got=%d", len(res.Fixtures))
	}
	if res.Fixtures[0].NativeID != "cf-3" {
		t.Fatalf("unexpected surviving record: %s", res.Fixtures[0].NativeID)
	}
}

func TestFetchFixtures_NonRetryableStatusFailsWithoutRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "unknown league"}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		MaxRetries:     3,
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	_, err := client.FetchFixtures(context.Background(), usecase.FetchRequest{
		LeagueID: "ncaa-d1",
		From:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
	})
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single attempt for non-retryable status, got=%d", got)
	}
}

func TestFetchFixtures_OpenBreakerRejectsBeforeDialing(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL,
		MaxRetries: 0,
		Logger:     logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	req := usecase.FetchRequest{
		LeagueID: "ncaa-d1",
		From:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
	}

	if _, err := client.FetchFixtures(context.Background(), req); err == nil {
		t.Fatal("expected first call to fail")
	}
	_, err := client.FetchFixtures(context.Background(), req)
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency-unavailable after breaker opened, got: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected breaker to stop the second dial, got=%d calls", got)
	}
}

func TestCovers_OnlyConfiguredLeagues(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{Logger: logging.NewNop()})
	if !client.Covers("ncaa-d1") {
		t.Fatal("expected default coverage to include ncaa-d1")
	}
	if client.Covers("euroleague") {
		t.Fatal("did not expect coverage of euroleague")
	}
	if client.LiveCapable() {
		t.Fatal("collegefeed must not be live-capable")
	}
}

func TestParseTipoff_Layouts(t *testing.T) {
	t.Parallel()

	parsed, offset, ok := parseTipoff("2026-03-14 18:30:00")
	if !ok {
		t.Fatal("expected legacy layout to parse")
	}
	if offset != 0 {
		t.Fatalf("legacy layout is UTC, got offset=%d", offset)
	}
	if parsed.Hour() != 18 || parsed.Minute() != 30 {
		t.Fatalf("unexpected parsed time: %s", parsed)
	}

	if _, _, ok := parseTipoff(""); ok {
		t.Fatal("expected empty tipoff to fail")
	}
	if _, _, ok := parseTipoff("14/03/2026"); ok {
		t.Fatal("expected unknown layout to fail")
	}
}

func TestSanitizeSensitiveText_RedactsTokens(t *testing.T) {
	t.Parallel()

	got := sanitizeSensitiveText(`dial tcp: lookup api?api_token=secret-token failed`, "secret-token")
	if got != "dial tcp: lookup api?api_token=REDACTED failed" {
		t.Fatalf("unexpected sanitized text: %s", got)
	}

	got = redactAPIURL("https://api.collegefeed.io/v2/games?api_token=abc&league=ncaa-d1")
	if got != "https://api.collegefeed.io/v2/games?api_token=REDACTED&league=ncaa-d1" {
		t.Fatalf("unexpected redacted url: %s", got)
	}
}
