package probasket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/draftradar/tipoff/internal/platform/logging"
	"github.com/draftradar/tipoff/internal/platform/resilience"
	"github.com/draftradar/tipoff/internal/usecase"
)

func newTestClient(srv *httptest.Server, retries int) *Client {
	return NewClient(ClientConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		APIKey:         "pb-key",
		MaxRetries:     retries,
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})
}

func TestFetchFixtures_LeagueScanMapsLiveGame(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/competitions/euroleague/games" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "pb-key" {
			t.Fatalf("unexpected api key header: %s", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [
				{
					"gameId": "pb-889",
					"status": "Q3",
					"tipoff": "2026-03-14 20:00:00",
					"utcOffsetMin": 60,
					"home": {"teamId": "77", "name": "LDLC ASVEL", "points": 55},
					"away": {"teamId": "41", "name": "FC Barcelona", "points": 51}
				}
			]
		}`))
	}))
	defer srv.Close()

	client := newTestClient(srv, 0)
	res, err := client.FetchFixtures(context.Background(), usecase.FetchRequest{
		LeagueID: "euroleague",
		From:     time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("fetch fixtures failed: %v", err)
	}
	if len(res.Fixtures) != 1 {
		t.Fatalf("expected one fixture, got=%d", len(res.Fixtures))
	}

	fx := res.Fixtures[0]
	// 20:00 at UTC+1 is 19:00 UTC.
	wantTipoff := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	if !fx.TipoffUTC.Equal(wantTipoff) {
		t.Fatalf("expected tipoff %s, got %s", wantTipoff, fx.TipoffUTC)
	}
	if fx.VenueOffsetMin != 60 {
		t.Fatalf("expected venue offset 60, got=%d", fx.VenueOffsetMin)
	}
	if fx.Status != "Q3" {
		t.Fatalf("unexpected status: %s", fx.Status)
	}
	if fx.HomeScore == nil || *fx.HomeScore != 55 {
		t.Fatalf("unexpected home score: %v", fx.HomeScore)
	}
}

func TestFetchFixtures_TeamScheduleEndpointWhenExternalIDKnown(t *testing.T) {
	t.Parallel()

	var gotPath atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	client := newTestClient(srv, 0)
	_, err := client.FetchFixtures(context.Background(), usecase.FetchRequest{
		LeagueID:       "euroleague",
		TeamExternalID: "77",
		From:           time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		To:             time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("fetch fixtures failed: %v", err)
	}
	if got := gotPath.Load(); got != "/teams/77/schedule" {
		t.Fatalf("expected team schedule endpoint, got: %v", got)
	}
}

func TestFetchFixtures_SkipsAmbiguousLocalTimes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Second row has a wall-clock tipoff but no offset: ambiguous.
		_, _ = w.Write([]byte(`{
			"data": [
				{"gameId": "pb-1", "tipoff": "2026-03-14T20:00:00+01:00", "home": {"name": "Valencia Basket"}, "away": {"name": "Joventut Badalona"}},
				{"gameId": "pb-2", "tipoff": "14.03.2026 20:30", "home": {"name": "Paris Basketball"}, "away": {"name": "LDLC ASVEL"}}
			]
		}`))
	}))
	defer srv.Close()

	client := newTestClient(srv, 0)
	res, err := client.FetchFixtures(context.Background(), usecase.FetchRequest{
		LeagueID: "liga-acb",
		From:     time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("fetch fixtures failed: %v", err)
	}
	if res.SkippedRecords != 1 {
		t.Fatalf("expected 1 skipped record, got=%d", res.SkippedRecords)
	}
	if len(res.Fixtures) != 1 || res.Fixtures[0].NativeID != "pb-1" {
		t.Fatalf("unexpected surviving fixtures: %+v", res.Fixtures)
	}
	if res.Fixtures[0].VenueOffsetMin != 60 {
		t.Fatalf("expected offset from RFC3339 zone, got=%d", res.Fixtures[0].VenueOffsetMin)
	}
}

func TestParseTipoff_Layouts(t *testing.T) {
	t.Parallel()

	offset := 120
	parsed, offsetMin, ok := parseTipoff("14.03.2026 20:30", &offset)
	if !ok {
		t.Fatal("expected dotted layout to parse with explicit offset")
	}
	if offsetMin != 120 {
		t.Fatalf("expected offset 120, got=%d", offsetMin)
	}
	want := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	if !parsed.Equal(want) {
		t.Fatalf("expected %s, got %s", want, parsed)
	}

	zero := 0
	parsed, offsetMin, ok = parseTipoff("2026-03-14 20:30:00", &zero)
	if !ok || offsetMin != 0 {
		t.Fatalf("expected UTC parse, ok=%v offset=%d", ok, offsetMin)
	}
	if parsed.Hour() != 20 {
		t.Fatalf("unexpected hour: %d", parsed.Hour())
	}

	if _, _, ok := parseTipoff("2026-03-14 20:30:00", nil); ok {
		t.Fatal("expected zone-less tipoff without offset to be rejected")
	}
	if _, _, ok := parseTipoff("", &offset); ok {
		t.Fatal("expected empty tipoff to be rejected")
	}
}

func TestClientIsLiveCapable(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{Logger: logging.NewNop()})
	if !client.LiveCapable() {
		t.Fatal("probasket must be live-capable")
	}
	if !client.Covers("euroleague") || !client.Covers("lnb-proa") {
		t.Fatal("expected default pro-league coverage")
	}
	if client.Covers("ncaa-d1") {
		t.Fatal("did not expect ncaa coverage")
	}
}
