package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

type entry struct {
	payload   []byte
	fetchedAt time.Time
}

// Store is the in-memory snapshot store. Every Set replaces the whole entry
// under one lock, so readers only ever observe complete snapshots. Entries are
// never dropped on age: a stale snapshot is still a valid snapshot, and
// staleness is the caller's policy via the fetched-at timestamp.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, time.Time, bool, error) {
	if key == "" {
		return nil, time.Time{}, false, nil
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, time.Time{}, false, nil
	}

	payload := make([]byte, len(e.payload))
	copy(payload, e.payload)
	return payload, e.fetchedAt, true, nil
}

func (s *Store) Set(_ context.Context, key string, payload []byte) error {
	if key == "" {
		return nil
	}

	copied := make([]byte, len(payload))
	copy(copied, payload)

	s.mu.Lock()
	s.entries[key] = entry{
		payload:   copied,
		fetchedAt: s.now(),
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) ListStaleKeys(_ context.Context, maxAge time.Duration) ([]string, error) {
	cutoff := s.now().Add(-maxAge)

	s.mu.RLock()
	keys := make([]string, 0, len(s.entries))
	for key, e := range s.entries {
		if e.fetchedAt.Before(cutoff) {
			keys = append(keys, key)
		}
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Count is Len behind the context-taking shape shared with the SQL-backed
// store, for callers that only see the interface.
func (s *Store) Count(_ context.Context) (int, error) {
	return s.Len(), nil
}
