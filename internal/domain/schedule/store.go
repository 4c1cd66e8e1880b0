package schedule

import (
	"context"
	"time"
)

// SnapshotStore is the cache the Query Service and Refresh Scheduler share.
// Writes are atomic whole-value upserts; a stale entry is still a complete,
// valid snapshot and stays readable until overwritten.
type SnapshotStore interface {
	Get(ctx context.Context, key string) (payload []byte, fetchedAt time.Time, found bool, err error)
	Set(ctx context.Context, key string, payload []byte) error
	ListStaleKeys(ctx context.Context, maxAge time.Duration) ([]string, error)
}
