package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/draftradar/tipoff/internal/domain/league"
	"github.com/draftradar/tipoff/internal/domain/prospect"
	"github.com/draftradar/tipoff/internal/domain/refreshrun"
	"github.com/draftradar/tipoff/internal/domain/schedule"
	"github.com/draftradar/tipoff/internal/platform/id"
	"github.com/draftradar/tipoff/internal/platform/logging"
)

type RefreshSchedulerConfig struct {
	// Interval between ticks.
	Interval time.Duration
	// ScopeConcurrency caps how many scopes refresh in parallel per tick.
	ScopeConcurrency int
	// ProspectWindowDays is the forward window refreshed per tracked
	// prospect's team.
	ProspectWindowDays int
	// StaleMaxAge decides when ad-hoc cache entries (keys the catalog pass
	// does not derive) are picked up for re-refresh.
	StaleMaxAge time.Duration
}

// HeartbeatPinger notifies an external liveness monitor after a clean tick.
// A nil pinger disables the notification.
type HeartbeatPinger interface {
	Ping(ctx context.Context) error
}

// RefreshScheduler keeps the snapshot cache warm: every tick it refreshes
// today's schedule for each catalog league, a forward window for each tracked
// prospect's team, and whatever stale ad-hoc entries user queries left
// behind. It is an ordinary cache writer; the query service's rebuild path
// writes the same snapshots.
type RefreshScheduler struct {
	reconciler   scopeReconciler
	leagueRepo   league.Repository
	prospectRepo prospect.Repository
	snapshots    schedule.SnapshotStore
	runRepo      refreshrun.Repository
	ids          id.Generator
	heartbeat    HeartbeatPinger
	cfg          RefreshSchedulerConfig
	logger       *logging.Logger
	now          func() time.Time

	lastTick atomic.Int64
}

func NewRefreshScheduler(
	reconciler scopeReconciler,
	leagueRepo league.Repository,
	prospectRepo prospect.Repository,
	snapshots schedule.SnapshotStore,
	runRepo refreshrun.Repository,
	ids id.Generator,
	heartbeat HeartbeatPinger,
	cfg RefreshSchedulerConfig,
	logger *logging.Logger,
) *RefreshScheduler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.ScopeConcurrency <= 0 {
		cfg.ScopeConcurrency = 4
	}
	if cfg.ProspectWindowDays <= 0 {
		cfg.ProspectWindowDays = 7
	}
	if cfg.StaleMaxAge <= 0 {
		cfg.StaleMaxAge = 5 * time.Minute
	}

	return &RefreshScheduler{
		reconciler:   reconciler,
		leagueRepo:   leagueRepo,
		prospectRepo: prospectRepo,
		snapshots:    snapshots,
		runRepo:      runRepo,
		ids:          ids,
		heartbeat:    heartbeat,
		cfg:          cfg,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Run ticks until ctx is cancelled. An immediate first tick warms the cache
// at startup; a failed tick is logged and never stops the loop.
func (s *RefreshScheduler) Run(ctx context.Context) {
	s.logger.InfoContext(ctx, "refresh scheduler started",
		"interval", s.cfg.Interval,
		"scope_concurrency", s.cfg.ScopeConcurrency)

	if _, err := s.RunTick(ctx, refreshrun.TriggerTick); err != nil {
		s.logger.ErrorContext(ctx, "refresh tick failed", "error", err)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "refresh scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.RunTick(ctx, refreshrun.TriggerTick); err != nil {
				s.logger.ErrorContext(ctx, "refresh tick failed", "error", err)
			}
		}
	}
}

// RunTick refreshes every tracked scope once. Scope failures are isolated:
// they mark their task failed and the tick carries on.
func (s *RefreshScheduler) RunTick(ctx context.Context, trigger refreshrun.Trigger) (refreshrun.Run, error) {
	ctx, span := startSpan(ctx, "usecase.RefreshScheduler.RunTick")
	defer span.End()

	started := s.now()
	scopes, err := s.trackedScopes(ctx)
	if err != nil {
		return refreshrun.Run{}, err
	}

	var mu sync.Mutex
	tasks := make([]refreshrun.TaskResult, 0, len(scopes))

	workers := pool.New().WithMaxGoroutines(s.cfg.ScopeConcurrency)
	for _, scope := range scopes {
		scope := scope
		workers.Go(func() {
			task := s.refreshScope(ctx, scope)
			mu.Lock()
			tasks = append(tasks, task)
			mu.Unlock()
		})
	}
	workers.Wait()

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].ScopeKey < tasks[j].ScopeKey
	})

	runID, err := s.ids.NewID()
	if err != nil {
		return refreshrun.Run{}, fmt.Errorf("new run id: %w", err)
	}
	run := refreshrun.Run{
		ID:         runID,
		Trigger:    trigger,
		StartedAt:  started,
		FinishedAt: s.now(),
		Tasks:      tasks,
	}
	if err := s.runRepo.Record(ctx, run); err != nil {
		s.logger.ErrorContext(ctx, "record refresh run failed", "run_id", run.ID, "error", err)
	}
	s.lastTick.Store(run.FinishedAt.UnixNano())

	s.logger.InfoContext(ctx, "refresh tick finished",
		"run_id", run.ID,
		"trigger", trigger,
		"scopes", len(tasks),
		"failed", run.FailedCount(),
		"took", run.FinishedAt.Sub(run.StartedAt))

	if run.Succeeded() && s.heartbeat != nil {
		if err := s.heartbeat.Ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "heartbeat ping failed", "error", err)
		}
	}

	return run, nil
}

// LastTick reports when the last tick finished, zero before the first one.
func (s *RefreshScheduler) LastTick() time.Time {
	nanos := s.lastTick.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos).UTC()
}

func (s *RefreshScheduler) GetRun(ctx context.Context, runID string) (refreshrun.Run, error) {
	ctx, span := startSpan(ctx, "usecase.RefreshScheduler.GetRun")
	defer span.End()

	runID = strings.TrimSpace(runID)
	if runID == "" {
		return refreshrun.Run{}, fmt.Errorf("%w: run id is required", ErrInvalidInput)
	}

	run, exists, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return refreshrun.Run{}, fmt.Errorf("get refresh run: %w", err)
	}
	if !exists {
		return refreshrun.Run{}, fmt.Errorf("%w: run=%s", ErrNotFound, runID)
	}
	return run, nil
}

func (s *RefreshScheduler) trackedScopes(ctx context.Context) ([]schedule.Scope, error) {
	now := s.now()

	leagues, err := s.leagueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}

	var scopes []schedule.Scope
	keys := make(map[string]struct{})
	add := func(scope schedule.Scope) {
		key := s.reconciler.ScopeKey(scope)
		if _, dup := keys[key]; dup {
			return
		}
		keys[key] = struct{}{}
		scopes = append(scopes, scope)
	}

	for _, lg := range leagues {
		add(schedule.LeagueDay(lg.ID, now))
	}

	tracked, err := s.prospectRepo.ListTracked(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tracked prospects: %w", err)
	}
	to := now.AddDate(0, 0, s.cfg.ProspectWindowDays)
	for _, p := range tracked {
		if p.FamilyKey == "" {
			continue
		}
		add(schedule.TeamWindow(p.FamilyKey, now, to))
	}

	// Ad-hoc entries written by user queries go stale too. Their keys parse
	// back into scopes, so the tick can re-refresh them alongside the
	// catalog-derived set.
	staleKeys, err := s.snapshots.ListStaleKeys(ctx, s.cfg.StaleMaxAge)
	if err != nil {
		s.logger.WarnContext(ctx, "list stale cache keys failed", "error", err)
		return scopes, nil
	}
	for _, key := range staleKeys {
		if _, dup := keys[key]; dup {
			continue
		}
		scope, _, parseErr := schedule.ParseScopeKey(key)
		if parseErr != nil {
			s.logger.WarnContext(ctx, "skip unparseable cache key", "cache_key", key, "error", parseErr)
			continue
		}
		add(scope)
	}

	return scopes, nil
}

func (s *RefreshScheduler) refreshScope(ctx context.Context, scope schedule.Scope) refreshrun.TaskResult {
	start := time.Now()
	task := refreshrun.TaskResult{ScopeKey: s.reconciler.ScopeKey(scope)}

	res, err := s.reconciler.Reconcile(ctx, scope)
	task.Duration = time.Since(start)
	if err != nil {
		task.Status = refreshrun.TaskFailed
		task.Message = err.Error()
		s.logger.WarnContext(ctx, "scope refresh failed", "scope_key", task.ScopeKey, "error", err)
		return task
	}

	task.Status = refreshrun.TaskOK
	task.FixtureCount = res.FixtureCount
	return task
}
