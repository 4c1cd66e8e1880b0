package usecase

import (
	"errors"
	"testing"

	"github.com/draftradar/tipoff/internal/infrastructure/repository/memory"
)

func TestLeagueService_ListLeagues(t *testing.T) {
	svc := NewLeagueService(memory.NewLeagueRepository(memory.SeedLeagues()))

	leagues, err := svc.ListLeagues(t.Context())
	if err != nil {
		t.Fatalf("list leagues: %v", err)
	}
	if len(leagues) != 5 {
		t.Fatalf("expected the seeded catalog, got %d leagues", len(leagues))
	}
	if leagues[0].ID != memory.LeagueIDEuroLeague {
		t.Fatalf("seed order not preserved: %s", leagues[0].ID)
	}
}

func TestLeagueService_GetLeague(t *testing.T) {
	svc := NewLeagueService(memory.NewLeagueRepository(memory.SeedLeagues()))

	lg, err := svc.GetLeague(t.Context(), memory.LeagueIDNCAA)
	if err != nil {
		t.Fatalf("get league: %v", err)
	}
	if lg.ID != memory.LeagueIDNCAA {
		t.Fatalf("unexpected league: %+v", lg)
	}

	if _, err := svc.GetLeague(t.Context(), "nba"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetLeague(t.Context(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
