package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/draftradar/tipoff/internal/domain/schedule"
	"github.com/draftradar/tipoff/internal/platform/logging"
	"github.com/draftradar/tipoff/internal/platform/resilience"
)

type scopeReconciler interface {
	Reconcile(ctx context.Context, scope schedule.Scope) (ReconcileResult, error)
	ScopeKey(scope schedule.Scope) string
}

// ScheduleView is a consumer-facing schedule read. FetchedAt and Stale tell
// the caller how fresh the data is; a stale view is still complete and
// consistent, just older than the scope's TTL.
type ScheduleView struct {
	ScopeKey  string
	Fixtures  []schedule.Fixture
	FetchedAt time.Time
	Stale     bool
}

// ScheduleQueryService answers schedule reads from the snapshot cache.
// Fresh entries are returned as-is; stale entries are returned immediately
// while exactly one background revalidation runs per key; misses block on a
// single-flighted rebuild shared by every concurrent caller of that key.
type ScheduleQueryService struct {
	reconciler scopeReconciler
	snapshots  schedule.SnapshotStore
	ttlDefault time.Duration
	ttlLive    time.Duration
	logger     *logging.Logger
	now        func() time.Time

	flight     resilience.SingleFlight
	revalidate resilience.Gate
	background sync.WaitGroup
}

func NewScheduleQueryService(
	reconciler scopeReconciler,
	snapshots schedule.SnapshotStore,
	ttlDefault time.Duration,
	ttlLive time.Duration,
	logger *logging.Logger,
) *ScheduleQueryService {
	if logger == nil {
		logger = logging.Default()
	}

	return &ScheduleQueryService{
		reconciler: reconciler,
		snapshots:  snapshots,
		ttlDefault: ttlDefault,
		ttlLive:    ttlLive,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *ScheduleQueryService) Query(ctx context.Context, scope schedule.Scope) (ScheduleView, error) {
	ctx, span := startSpan(ctx, "usecase.ScheduleQueryService.Query")
	defer span.End()

	if err := scope.Validate(); err != nil {
		return ScheduleView{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	key := s.reconciler.ScopeKey(scope)
	payload, fetchedAt, found, err := s.snapshots.Get(ctx, key)
	if err != nil {
		// Cache outage: every request pays for a synchronous rebuild, still
		// collapsed per key so the outage does not multiply upstream load.
		s.logger.ErrorContext(ctx, "snapshot store read failed", "cache_key", key, "error", err)
		return s.rebuild(ctx, scope, key)
	}

	if found {
		fixtures, decodeErr := decodeScheduleSnapshot(payload)
		if decodeErr != nil {
			// A corrupt entry is treated as a miss and overwritten below.
			s.logger.ErrorContext(ctx, "snapshot decode failed", "cache_key", key, "error", decodeErr)
		} else {
			view := ScheduleView{
				ScopeKey:  key,
				Fixtures:  fixtures,
				FetchedAt: fetchedAt,
			}
			if s.now().Sub(fetchedAt) < s.ttlFor(scope) {
				return view, nil
			}
			view.Stale = true
			s.enqueueRevalidation(scope, key)
			return view, nil
		}
	}

	return s.rebuild(ctx, scope, key)
}

// rebuild reconciles the scope synchronously. Concurrent callers of the same
// key collapse onto one upstream pass; a caller whose context expires stops
// waiting, but the pass itself runs to completion and populates the cache.
func (s *ScheduleQueryService) rebuild(ctx context.Context, scope schedule.Scope, key string) (ScheduleView, error) {
	v, err, _ := s.flight.DoContext(ctx, key, func() (any, error) {
		res, err := s.reconciler.Reconcile(context.Background(), scope)
		if err != nil {
			return nil, err
		}
		return ScheduleView{
			ScopeKey:  key,
			Fixtures:  res.Fixtures,
			FetchedAt: s.now(),
		}, nil
	})
	if err != nil {
		return ScheduleView{}, fmt.Errorf("rebuild schedule: %w", err)
	}

	view, ok := v.(ScheduleView)
	if !ok {
		return ScheduleView{}, fmt.Errorf("rebuild schedule: unexpected result type %T", v)
	}
	return view, nil
}

// enqueueRevalidation starts at most one background refresh per key. Losers
// return immediately; the stale snapshot keeps serving until the winner's
// write lands.
func (s *ScheduleQueryService) enqueueRevalidation(scope schedule.Scope, key string) {
	if !s.revalidate.TryAcquire(key) {
		return
	}

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer s.revalidate.Release(key)

		if _, err := s.reconciler.Reconcile(context.Background(), scope); err != nil {
			s.logger.Warn("background revalidation failed", "cache_key", key, "error", err)
		}
	}()
}

// ttlFor picks the freshness budget. A scope whose window covers today may
// hold a game that is live right now, so it expires on the short TTL.
func (s *ScheduleQueryService) ttlFor(scope schedule.Scope) time.Duration {
	if scope.Covers(s.now()) {
		return s.ttlLive
	}
	return s.ttlDefault
}
