package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/draftradar/tipoff/internal/domain/prospect"
	"github.com/draftradar/tipoff/internal/domain/refreshrun"
	"github.com/draftradar/tipoff/internal/domain/schedule"
	"github.com/draftradar/tipoff/internal/infrastructure/repository/memory"
	"github.com/draftradar/tipoff/internal/platform/cache"
	"github.com/draftradar/tipoff/internal/platform/id"
)

type stubPinger struct{ pings atomic.Int32 }

func (p *stubPinger) Ping(context.Context) error {
	p.pings.Add(1)
	return nil
}

func TestRefreshScheduler_TickCoversCatalogAndProspects(t *testing.T) {
	store := cache.NewStore()
	rec := &stubReconciler{
		providers: []string{"collegefeed", "leaguesites", "probasket"},
		store:     store,
	}
	runRepo := memory.NewRefreshRunRepository(0)
	pinger := &stubPinger{}

	scheduler := NewRefreshScheduler(
		rec,
		memory.NewLeagueRepository(memory.SeedLeagues()),
		memory.NewProspectRepository(memory.SeedProspects()),
		store,
		runRepo,
		id.NewUUIDGenerator(),
		pinger,
		RefreshSchedulerConfig{},
		nil,
	)

	run, err := scheduler.RunTick(t.Context(), refreshrun.TriggerManual)
	if err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	// Seed catalog: 5 leagues, plus 4 tracked prospects on 4 distinct teams.
	if len(run.Tasks) != 9 {
		t.Fatalf("expected 9 scopes, got %d: %+v", len(run.Tasks), run.Tasks)
	}
	if run.FailedCount() != 0 {
		t.Fatalf("expected a clean tick, got %d failures", run.FailedCount())
	}
	if run.Trigger != refreshrun.TriggerManual {
		t.Fatalf("trigger not recorded: %s", run.Trigger)
	}

	stored, exists, err := runRepo.GetByID(t.Context(), run.ID)
	if err != nil || !exists {
		t.Fatalf("run not recorded: exists=%v err=%v", exists, err)
	}
	if len(stored.Tasks) != len(run.Tasks) {
		t.Fatalf("stored run truncated: %d vs %d tasks", len(stored.Tasks), len(run.Tasks))
	}

	if scheduler.LastTick().IsZero() {
		t.Fatalf("last tick must be stamped after a run")
	}
	if got := pinger.pings.Load(); got != 1 {
		t.Fatalf("clean tick pings the heartbeat once, got %d", got)
	}
}

func TestRefreshScheduler_ScopeFailureIsIsolated(t *testing.T) {
	store := cache.NewStore()
	rec := &stubReconciler{
		providers: []string{"collegefeed", "leaguesites", "probasket"},
		store:     store,
		fail: func(scope schedule.Scope) error {
			if scope.FamilyKey == memory.FamilyKeyASVEL {
				return errors.New("provider timeout")
			}
			return nil
		},
	}
	pinger := &stubPinger{}

	scheduler := NewRefreshScheduler(
		rec,
		memory.NewLeagueRepository(memory.SeedLeagues()),
		memory.NewProspectRepository(memory.SeedProspects()),
		store,
		memory.NewRefreshRunRepository(0),
		id.NewUUIDGenerator(),
		pinger,
		RefreshSchedulerConfig{},
		nil,
	)

	run, err := scheduler.RunTick(t.Context(), refreshrun.TriggerTick)
	if err != nil {
		t.Fatalf("one failing scope must not fail the tick: %v", err)
	}
	if len(run.Tasks) != 9 {
		t.Fatalf("expected all 9 scopes attempted, got %d", len(run.Tasks))
	}
	if run.FailedCount() != 1 {
		t.Fatalf("expected exactly 1 failed task, got %d", run.FailedCount())
	}
	for _, task := range run.Tasks {
		if task.Status == refreshrun.TaskFailed && task.Message == "" {
			t.Fatalf("failed task must carry the error message: %+v", task)
		}
	}
	if got := pinger.pings.Load(); got != 0 {
		t.Fatalf("a tick with failures must not ping the heartbeat, got %d", got)
	}
}

func TestRefreshScheduler_PicksUpStaleAdHocKeys(t *testing.T) {
	store := cache.NewStore()
	rec := &stubReconciler{
		providers: []string{"leaguesites", "probasket"},
		store:     store,
	}

	from := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)
	adHoc := schedule.TeamWindow(memory.FamilyKeyBarcelona, from, from.AddDate(0, 0, 7))
	seedSnapshot(t, store, rec.ScopeKey(adHoc), nil)
	if err := store.Set(t.Context(), "not|a|scope", []byte("[]")); err != nil {
		t.Fatalf("seed garbage key: %v", err)
	}

	scheduler := NewRefreshScheduler(
		rec,
		memory.NewLeagueRepository(nil),
		memory.NewProspectRepository(nil),
		store,
		memory.NewRefreshRunRepository(0),
		id.NewUUIDGenerator(),
		nil,
		RefreshSchedulerConfig{StaleMaxAge: time.Nanosecond},
		nil,
	)

	run, err := scheduler.RunTick(t.Context(), refreshrun.TriggerTick)
	if err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if len(run.Tasks) != 1 {
		t.Fatalf("expected only the parseable ad-hoc scope, got %+v", run.Tasks)
	}
	if run.Tasks[0].ScopeKey != rec.ScopeKey(adHoc) {
		t.Fatalf("unexpected scope refreshed: %s", run.Tasks[0].ScopeKey)
	}
	if got := rec.calls.Load(); got != 1 {
		t.Fatalf("expected 1 reconcile, got %d", got)
	}
}

func TestRefreshScheduler_DuplicateFamiliesCollapse(t *testing.T) {
	rec := &stubReconciler{providers: []string{"probasket"}}
	prospects := []prospect.Prospect{
		{ID: "pr-a", FullName: "A", Position: prospect.PositionPointGuard, FamilyKey: memory.FamilyKeyASVEL, Tracked: true},
		{ID: "pr-b", FullName: "B", Position: prospect.PositionCenter, FamilyKey: memory.FamilyKeyASVEL, Tracked: true},
	}

	scheduler := NewRefreshScheduler(
		rec,
		memory.NewLeagueRepository(nil),
		memory.NewProspectRepository(prospects),
		cache.NewStore(),
		memory.NewRefreshRunRepository(0),
		id.NewUUIDGenerator(),
		nil,
		RefreshSchedulerConfig{},
		nil,
	)

	run, err := scheduler.RunTick(t.Context(), refreshrun.TriggerTick)
	if err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if len(run.Tasks) != 1 {
		t.Fatalf("two prospects on one team share a scope, got %d tasks", len(run.Tasks))
	}
}

func TestRefreshScheduler_GetRun(t *testing.T) {
	rec := &stubReconciler{providers: []string{"probasket"}}
	scheduler := NewRefreshScheduler(
		rec,
		memory.NewLeagueRepository(nil),
		memory.NewProspectRepository(nil),
		cache.NewStore(),
		memory.NewRefreshRunRepository(0),
		id.NewUUIDGenerator(),
		nil,
		RefreshSchedulerConfig{},
		nil,
	)

	run, err := scheduler.RunTick(t.Context(), refreshrun.TriggerManual)
	if err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	got, err := scheduler.GetRun(t.Context(), run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.ID != run.ID {
		t.Fatalf("unexpected run: %s", got.ID)
	}

	if _, err := scheduler.GetRun(t.Context(), ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := scheduler.GetRun(t.Context(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRefreshScheduler_RunStopsOnContextCancel(t *testing.T) {
	rec := &stubReconciler{providers: []string{"probasket"}}
	scheduler := NewRefreshScheduler(
		rec,
		memory.NewLeagueRepository(nil),
		memory.NewProspectRepository(nil),
		cache.NewStore(),
		memory.NewRefreshRunRepository(0),
		id.NewUUIDGenerator(),
		nil,
		RefreshSchedulerConfig{Interval: time.Hour},
		nil,
	)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler did not stop after cancel")
	}

	if scheduler.LastTick().IsZero() {
		t.Fatalf("startup tick must run before the loop blocks")
	}
}
