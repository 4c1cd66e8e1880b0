package resilience

import "sync"

// Gate admits at most one holder per key. Unlike SingleFlight it does not
// carry a result: it is a tryLock for fire-and-forget work such as background
// cache revalidation, where losers skip instead of waiting.
type Gate struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// TryAcquire reports whether the caller won the slot for key. A winner must
// call Release exactly once when its work is done.
func (g *Gate) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.held == nil {
		g.held = make(map[string]struct{})
	}
	if _, ok := g.held[key]; ok {
		return false
	}
	g.held[key] = struct{}{}
	return true
}

func (g *Gate) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, key)
}

// Len reports how many keys are currently held.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.held)
}
