package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/draftradar/tipoff/internal/platform/resilience"
)

type memoEntry struct {
	value     any
	expiresAt time.Time
}

// Memo is a TTL'd read-through cache for repository lookups. Concurrent
// loads of the same key collapse onto one loader call.
type Memo struct {
	mu      sync.RWMutex
	entries map[string]memoEntry
	ttl     time.Duration
	flight  resilience.SingleFlight
}

func NewMemo(ttl time.Duration) *Memo {
	return &Memo{
		entries: make(map[string]memoEntry),
		ttl:     ttl,
	}
}

func (m *Memo) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	now := time.Now()
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.ttl > 0 && !e.expiresAt.After(now) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

func (m *Memo) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}

	expiresAt := time.Time{}
	if m.ttl > 0 {
		expiresAt = time.Now().Add(m.ttl)
	}

	m.mu.Lock()
	m.entries[key] = memoEntry{
		value:     value,
		expiresAt: expiresAt,
	}
	m.mu.Unlock()
}

func (m *Memo) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

func (m *Memo) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}

	m.mu.Lock()
	for key := range m.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()
}

func (m *Memo) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := m.Get(ctx, key); ok {
		return value, nil
	}

	value, err, _ := m.flight.Do(key, func() (any, error) {
		if cached, ok := m.Get(ctx, key); ok {
			return cached, nil
		}

		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		m.Set(ctx, key, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}
