package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/draftradar/tipoff/internal/domain/refreshrun"
	"github.com/draftradar/tipoff/internal/platform/resilience"
)

const statusRecentRuns = 5

type snapshotInventory interface {
	Count(ctx context.Context) (int, error)
	ListStaleKeys(ctx context.Context, maxAge time.Duration) ([]string, error)
}

type schedulerProbe interface {
	LastTick() time.Time
}

// StatusReport is the operator view served by /v1/status.
type StatusReport struct {
	CacheEntries int                          `json:"cache_entries"`
	CacheStale   int                          `json:"cache_stale"`
	LastTick     *time.Time                   `json:"last_tick,omitempty"`
	RecentRuns   []refreshrun.Run             `json:"recent_runs"`
	Breakers     []resilience.CircuitSnapshot `json:"breakers"`
}

// StatusService aggregates engine internals for operators: cache pressure,
// scheduler liveness, recent refresh outcomes and breaker states.
type StatusService struct {
	snapshots snapshotInventory
	runRepo   refreshrun.Repository
	scheduler schedulerProbe
	breakers  []*resilience.CircuitBreaker
	staleAge  time.Duration
}

func NewStatusService(
	snapshots snapshotInventory,
	runRepo refreshrun.Repository,
	scheduler schedulerProbe,
	breakers []*resilience.CircuitBreaker,
	staleAge time.Duration,
) *StatusService {
	if staleAge <= 0 {
		staleAge = 5 * time.Minute
	}

	return &StatusService{
		snapshots: snapshots,
		runRepo:   runRepo,
		scheduler: scheduler,
		breakers:  breakers,
		staleAge:  staleAge,
	}
}

func (s *StatusService) Report(ctx context.Context) (StatusReport, error) {
	ctx, span := startSpan(ctx, "usecase.StatusService.Report")
	defer span.End()

	report := StatusReport{
		RecentRuns: []refreshrun.Run{},
		Breakers:   make([]resilience.CircuitSnapshot, 0, len(s.breakers)),
	}

	entries, err := s.snapshots.Count(ctx)
	if err != nil {
		return StatusReport{}, fmt.Errorf("count cache entries: %w", err)
	}
	report.CacheEntries = entries

	staleKeys, err := s.snapshots.ListStaleKeys(ctx, s.staleAge)
	if err != nil {
		return StatusReport{}, fmt.Errorf("list stale cache keys: %w", err)
	}
	report.CacheStale = len(staleKeys)

	runs, err := s.runRepo.ListRecent(ctx, statusRecentRuns)
	if err != nil {
		return StatusReport{}, fmt.Errorf("list recent refresh runs: %w", err)
	}
	report.RecentRuns = runs

	if s.scheduler != nil {
		if last := s.scheduler.LastTick(); !last.IsZero() {
			report.LastTick = &last
		}
	}
	for _, breaker := range s.breakers {
		report.Breakers = append(report.Breakers, breaker.Snapshot())
	}

	return report, nil
}
