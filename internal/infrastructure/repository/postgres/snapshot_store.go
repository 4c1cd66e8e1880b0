package postgres

import (
	"context"
	"fmt"
	"time"

	qb "github.com/draftradar/tipoff/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type scheduleCacheTableModel struct {
	CacheKey  string    `db:"cache_key"`
	Payload   []byte    `db:"payload"`
	FetchedAt time.Time `db:"fetched_at"`
}

// SnapshotStore is the SQL-backed snapshot cache. It shares semantics with
// the in-memory store: Set replaces the whole entry, entries are never
// dropped on age, and staleness is the caller's policy via fetched_at.
type SnapshotStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSnapshotStore(db *sqlx.DB) *SnapshotStore {
	return &SnapshotStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *SnapshotStore) Get(ctx context.Context, key string) ([]byte, time.Time, bool, error) {
	if key == "" {
		return nil, time.Time{}, false, nil
	}

	query, args, err := qb.Select("*").From("schedule_cache").
		Where(qb.Eq("cache_key", key)).
		ToSQL()
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("build get snapshot query: %w", err)
	}

	var row scheduleCacheTableModel
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, fmt.Errorf("get snapshot: %w", err)
	}

	return row.Payload, row.FetchedAt, true, nil
}

func (s *SnapshotStore) Set(ctx context.Context, key string, payload []byte) error {
	if key == "" {
		return nil
	}

	insertModel := scheduleCacheTableModel{
		CacheKey:  key,
		Payload:   payload,
		FetchedAt: s.now(),
	}
	query, args, err := qb.InsertModel("schedule_cache", insertModel, `ON CONFLICT (cache_key)
DO UPDATE SET
    payload = EXCLUDED.payload,
    fetched_at = EXCLUDED.fetched_at`)
	if err != nil {
		return fmt.Errorf("build upsert snapshot query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", key, err)
	}

	return nil
}

func (s *SnapshotStore) ListStaleKeys(ctx context.Context, maxAge time.Duration) ([]string, error) {
	cutoff := s.now().Add(-maxAge)

	query, args, err := qb.Select("cache_key").From("schedule_cache").
		Where(qb.Expr("fetched_at < ?", cutoff)).
		OrderBy("cache_key").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list stale snapshot keys query: %w", err)
	}

	var keys []string
	if err := s.db.SelectContext(ctx, &keys, query, args...); err != nil {
		return nil, fmt.Errorf("list stale snapshot keys: %w", err)
	}

	return keys, nil
}

func (s *SnapshotStore) Count(ctx context.Context) (int, error) {
	query, args, err := qb.Select("COUNT(1)").From("schedule_cache").ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count snapshots query: %w", err)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}

	return count, nil
}
