package leaguesites

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/draftradar/tipoff/internal/platform/logging"
	"github.com/draftradar/tipoff/internal/platform/resilience"
	"github.com/draftradar/tipoff/internal/usecase"
)

func TestFetchFixtures_ResolvesVenueLocalClock(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gamecenter/acb" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		query := r.URL.Query()
		if got := query.Get("from"); got != "2026-03-14" {
			t.Fatalf("unexpected from param: %s", got)
		}
		if got := query.Get("seasoncode"); got != "A2025" {
			t.Fatalf("expected endpoint query to survive, got seasoncode=%s", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"games": [
				{
					"code": "ACB-2026-518",
					"date": "14/03/2026",
					"time": "20:30",
					"status": "Final",
					"local": {"club": "Valencia Basket", "score": 88},
					"road": {"club": "Joventut Badalona", "score": 80}
				}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		Endpoints:      map[string]string{"liga-acb": srv.URL + "/gamecenter/acb?seasoncode=A2025"},
		VenueTZ:        map[string]string{"liga-acb": "Europe/Madrid"},
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	res, err := client.FetchFixtures(context.Background(), usecase.FetchRequest{
		LeagueID: "liga-acb",
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
	// Madrid is UTC+1 in mid-March: 20:30 local is 19:30 UTC.
	wantTipoff := time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)
	if !fx.TipoffUTC.Equal(wantTipoff) {
		t.Fatalf("expected tipoff %s, got %s", wantTipoff, fx.TipoffUTC)
	}
	if fx.VenueOffsetMin != 60 {
		t.Fatalf("expected venue offset 60, got=%d", fx.VenueOffsetMin)
	}
	if fx.HomeName != "Valencia Basket" || fx.AwayName != "Joventut Badalona" {
		t.Fatalf("unexpected sides: %s vs %s", fx.HomeName, fx.AwayName)
	}
	if fx.HomeScore == nil || *fx.HomeScore != 88 {
		t.Fatalf("unexpected home score: %v", fx.HomeScore)
	}
}

func TestFetchFixtures_UncoveredLeagueRejected(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{
		Endpoints: map[string]string{"euroleague": "https://example.org/gc"},
		Logger:    logging.NewNop(),
	})
	if client.Covers("liga-acb") {
		t.Fatal("did not expect coverage without endpoint")
	}

	_, err := client.FetchFixtures(context.Background(), usecase.FetchRequest{
		LeagueID: "liga-acb",
		From:     time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	if err == nil || !strings.Contains(err.Error(), "no game-center endpoint") {
		t.Fatalf("expected endpoint error, got: %v", err)
	}
}

func TestFetchFixtures_SkipsRowsItCannotPlaceInTime(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"games": [
				{"code": "LNB-1", "date": "14/03/2026", "time": "20:00", "tz": "Mars/Olympus", "local": {"club": "Paris Basketball"}, "road": {"club": "LDLC ASVEL"}},
				{"code": "LNB-2", "date": "2026-03-14", "time": "20:00", "local": {"club": "Paris Basketball"}, "road": {"club": "LDLC ASVEL"}},
				{"code": "LNB-3", "date": "14/03/2026", "time": "20:00", "local": {"club": "Paris Basketball"}, "road": {"club": "LDLC ASVEL"}}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		Endpoints:      map[string]string{"lnb-proa": srv.URL + "/gc"},
		VenueTZ:        map[string]string{"lnb-proa": "Europe/Paris"},
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	res, err := client.FetchFixtures(context.Background(), usecase.FetchRequest{
		LeagueID: "lnb-proa",
		From:     time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("fetch fixtures failed: %v", err)
	}
	if res.SkippedRecords != 2 {
		t.Fatalf("expected 2 skipped rows, got=%d", res.SkippedRecords)
	}
	if len(res.Fixtures) != 1 || res.Fixtures[0].NativeID != "LNB-3" {
		t.Fatalf("unexpected surviving fixtures: %+v", res.Fixtures)
	}
}

func TestMapGame_PreservesDSTOffset(t *testing.T) {
	t.Parallel()

	row := gameCenterRow{
		Code:  "EL-2026-301",
		Date:  "14/04/2026",
		Time:  "21:00",
		Local: gameCenterTwo{Club: "FC Barcelona"},
		Road:  gameCenterTwo{Club: "Paris Basketball"},
	}

	fx, ok := mapGame("euroleague", row, "Europe/Madrid")
	if !ok {
		t.Fatal("expected row to map")
	}
	// Madrid is UTC+2 in mid-April.
	if fx.VenueOffsetMin != 120 {
		t.Fatalf("expected summer offset 120, got=%d", fx.VenueOffsetMin)
	}
	wantTipoff := time.Date(2026, 4, 14, 19, 0, 0, 0, time.UTC)
	if !fx.TipoffUTC.Equal(wantTipoff) {
		t.Fatalf("expected tipoff %s, got %s", wantTipoff, fx.TipoffUTC)
	}
	if fx.Status != "" {
		t.Fatalf("expected empty raw status passthrough, got %q", fx.Status)
	}
}

func TestMapGame_RowZoneOverridesLeagueDefault(t *testing.T) {
	t.Parallel()

	row := gameCenterRow{
		Code:  "EL-2026-307",
		Date:  "14/03/2026",
		Time:  "19:00",
		TZ:    "Europe/Istanbul",
		Local: gameCenterTwo{Club: "Anadolu Efes"},
		Road:  gameCenterTwo{Club: "LDLC ASVEL"},
	}

	fx, ok := mapGame("euroleague", row, "Europe/Madrid")
	if !ok {
		t.Fatal("expected row to map")
	}
	// Istanbul holds UTC+3 year-round.
	if fx.VenueOffsetMin != 180 {
		t.Fatalf("expected offset 180, got=%d", fx.VenueOffsetMin)
	}
}
