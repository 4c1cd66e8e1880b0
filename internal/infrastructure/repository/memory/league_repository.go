package memory

import (
	"context"
	"sync"

	"github.com/draftradar/tipoff/internal/domain/league"
)

// LeagueRepository holds the league catalog in memory. The catalog is fixed
// at construction; reads return copies because League carries a providers
// slice.
type LeagueRepository struct {
	mu     sync.RWMutex
	items  map[string]league.League
	orders []string
}

func NewLeagueRepository(leagues []league.League) *LeagueRepository {
	items := make(map[string]league.League, len(leagues))
	orders := make([]string, 0, len(leagues))

	for _, l := range leagues {
		items[l.ID] = cloneLeague(l)
		orders = append(orders, l.ID)
	}

	return &LeagueRepository{
		items:  items,
		orders: orders,
	}
}

func (r *LeagueRepository) List(_ context.Context) ([]league.League, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]league.League, 0, len(r.orders))
	for _, id := range r.orders {
		out = append(out, cloneLeague(r.items[id]))
	}

	return out, nil
}

func (r *LeagueRepository) GetByID(_ context.Context, leagueID string) (league.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.items[leagueID]
	if !ok {
		return league.League{}, false, nil
	}

	return cloneLeague(l), true, nil
}

func cloneLeague(l league.League) league.League {
	copied := l
	copied.Providers = append([]string(nil), l.Providers...)
	return copied
}
