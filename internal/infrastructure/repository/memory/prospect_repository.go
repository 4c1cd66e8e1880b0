package memory

import (
	"context"
	"sync"

	"github.com/draftradar/tipoff/internal/domain/prospect"
)

type ProspectRepository struct {
	mu     sync.RWMutex
	items  map[string]prospect.Prospect
	orders []string
}

func NewProspectRepository(prospects []prospect.Prospect) *ProspectRepository {
	items := make(map[string]prospect.Prospect, len(prospects))
	orders := make([]string, 0, len(prospects))

	for _, p := range prospects {
		items[p.ID] = p
		orders = append(orders, p.ID)
	}

	return &ProspectRepository{
		items:  items,
		orders: orders,
	}
}

func (r *ProspectRepository) List(_ context.Context) ([]prospect.Prospect, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]prospect.Prospect, 0, len(r.orders))
	for _, id := range r.orders {
		out = append(out, r.items[id])
	}

	return out, nil
}

func (r *ProspectRepository) ListTracked(_ context.Context) ([]prospect.Prospect, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]prospect.Prospect, 0, len(r.orders))
	for _, id := range r.orders {
		if p := r.items[id]; p.Tracked {
			out = append(out, p)
		}
	}

	return out, nil
}

func (r *ProspectRepository) GetByID(_ context.Context, prospectID string) (prospect.Prospect, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[prospectID]
	if !ok {
		return prospect.Prospect{}, false, nil
	}

	return p, true, nil
}
