package resilience

import (
	"context"
	"sync"
)

// SingleFlight deduplicates concurrent calls for the same key.
type SingleFlight struct {
	mu    sync.Mutex
	calls map[string]*call
}

type call struct {
	done chan struct{}
	val  any
	err  error
}

// Do runs fn once per key among concurrent callers; duplicates block until
// the leader finishes. The boolean reports whether the result was shared.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (any, error, bool) {
	c, leader := g.join(key)
	if !leader {
		<-c.done
		return c.val, c.err, true
	}

	g.run(key, c, fn)
	return c.val, c.err, false
}

// DoContext behaves like Do except a caller whose context expires stops
// waiting and returns ctx.Err(). The underlying call is never cancelled: it
// runs to completion so its result can serve callers that are still waiting
// and whatever fn writes back (e.g. a cache) survives for later requests.
func (g *SingleFlight) DoContext(ctx context.Context, key string, fn func() (any, error)) (any, error, bool) {
	c, leader := g.join(key)
	if leader {
		go g.run(key, c, fn)
	}

	select {
	case <-c.done:
		return c.val, c.err, !leader
	case <-ctx.Done():
		return nil, ctx.Err(), !leader
	}
}

func (g *SingleFlight) join(key string) (c *call, leader bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.calls == nil {
		g.calls = make(map[string]*call)
	}
	if existing, ok := g.calls[key]; ok {
		return existing, false
	}

	c = &call{done: make(chan struct{})}
	g.calls[key] = c
	return c, true
}

func (g *SingleFlight) run(key string, c *call, fn func() (any, error)) {
	c.val, c.err = fn()

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()

	close(c.done)
}
