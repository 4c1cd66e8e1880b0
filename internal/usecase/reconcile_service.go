package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/draftradar/tipoff/internal/domain/curation"
	"github.com/draftradar/tipoff/internal/domain/identity"
	"github.com/draftradar/tipoff/internal/domain/league"
	"github.com/draftradar/tipoff/internal/domain/prospect"
	"github.com/draftradar/tipoff/internal/domain/schedule"
	"github.com/draftradar/tipoff/internal/platform/logging"
)

const (
	fetchStatusSuccess = "success"
	fetchStatusFailed  = "failed"
)

// SourceRuntime binds an adapter to its long-lived worker pool and per-call
// timeout. The pool caps in-flight calls to that provider globally: the
// scheduler and the query paths submit to the same pool, so upstream rate
// limits hold no matter who triggers the fetch.
type SourceRuntime struct {
	Adapter SourceAdapter
	Pool    *ants.Pool
	Timeout time.Duration
}

// SourceReport is the outcome of one (provider, league) fetch within a pass.
type SourceReport struct {
	Provider   string `json:"provider"`
	LeagueID   string `json:"league_id"`
	Status     string `json:"status"`
	Fixtures   int    `json:"fixtures"`
	Skipped    int    `json:"skipped"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

// ReconcileResult summarizes one reconciliation pass. Fixtures carries the
// merged schedule; the JSON shape is what the internal jobs API returns.
type ReconcileResult struct {
	ScopeKey       string             `json:"scope_key"`
	FixtureCount   int                `json:"fixture_count"`
	SkippedRecords int                `json:"skipped_records"`
	Sources        []SourceReport     `json:"sources"`
	Fixtures       []schedule.Fixture `json:"-"`
}

type auditRecorder interface {
	Record(ctx context.Context, event curation.AuditEvent) error
}

// ReconcileService fetches a scope's fixtures from every covering source,
// merges provider disagreements into one schedule and writes the snapshot
// back to the cache.
type ReconcileService struct {
	sources      []SourceRuntime
	identitySvc  *IdentityService
	leagueRepo   league.Repository
	prospectRepo prospect.Repository
	snapshots    schedule.SnapshotStore
	audit        auditRecorder
	logger       *logging.Logger
	now          func() time.Time

	liveCapable map[string]bool
	providers   []string
}

func NewReconcileService(
	sources []SourceRuntime,
	identitySvc *IdentityService,
	leagueRepo league.Repository,
	prospectRepo prospect.Repository,
	snapshots schedule.SnapshotStore,
	audit auditRecorder,
	logger *logging.Logger,
) *ReconcileService {
	if logger == nil {
		logger = logging.Default()
	}

	liveCapable := make(map[string]bool, len(sources))
	providers := make([]string, 0, len(sources))
	for _, src := range sources {
		liveCapable[src.Adapter.Name()] = src.Adapter.LiveCapable()
		providers = append(providers, src.Adapter.Name())
	}
	sort.Strings(providers)

	return &ReconcileService{
		sources:      sources,
		identitySvc:  identitySvc,
		leagueRepo:   leagueRepo,
		prospectRepo: prospectRepo,
		snapshots:    snapshots,
		audit:        audit,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
		liveCapable:  liveCapable,
		providers:    providers,
	}
}

// Providers returns the registered source names, sorted. The set is baked
// into every cache key, so changing the configured providers retires old
// entries instead of mixing snapshots built from different source sets.
func (s *ReconcileService) Providers() []string {
	out := make([]string, len(s.providers))
	copy(out, s.providers)
	return out
}

func (s *ReconcileService) ScopeKey(scope schedule.Scope) string {
	return scope.Key(s.providers)
}

func (s *ReconcileService) Reconcile(ctx context.Context, scope schedule.Scope) (ReconcileResult, error) {
	ctx, span := startSpan(ctx, "usecase.ReconcileService.Reconcile")
	defer span.End()

	if err := scope.Validate(); err != nil {
		return ReconcileResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(s.sources) == 0 {
		return ReconcileResult{}, fmt.Errorf("%w: no source adapters registered", ErrDependencyUnavailable)
	}

	tasks, err := s.buildFetchTasks(ctx, scope)
	if err != nil {
		return ReconcileResult{}, err
	}

	result := ReconcileResult{ScopeKey: s.ScopeKey(scope)}
	if len(tasks) == 0 {
		// No source covers this scope. An empty snapshot is still a complete
		// snapshot; cache it so callers are not re-fetching a known blank.
		s.writeSnapshot(ctx, result.ScopeKey, nil)
		return result, nil
	}

	records, reports := s.fetchAll(ctx, scope, tasks)
	result.Sources = reports

	succeeded := 0
	for _, report := range reports {
		if report.Status == fetchStatusSuccess {
			succeeded++
		}
		result.SkippedRecords += report.Skipped
	}
	if succeeded == 0 {
		return ReconcileResult{}, fmt.Errorf("%w: all %d source fetches failed for scope %s",
			ErrDependencyUnavailable, len(tasks), result.ScopeKey)
	}

	fixtures, err := s.assemble(ctx, scope, records)
	if err != nil {
		return ReconcileResult{}, err
	}
	result.Fixtures = fixtures
	result.FixtureCount = len(fixtures)

	s.writeSnapshot(ctx, result.ScopeKey, fixtures)
	return result, nil
}

type fetchTask struct {
	runtime SourceRuntime
	request FetchRequest
}

func (s *ReconcileService) buildFetchTasks(ctx context.Context, scope schedule.Scope) ([]fetchTask, error) {
	var leagues []league.League
	teamExternalIDs := map[string]string{}

	switch scope.Kind {
	case schedule.ScopeLeagueDay:
		lg, exists, err := s.leagueRepo.GetByID(ctx, scope.LeagueID)
		if err != nil {
			return nil, fmt.Errorf("get league: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: league=%s", ErrNotFound, scope.LeagueID)
		}
		leagues = append(leagues, lg)
	case schedule.ScopeTeamWindow:
		team, err := s.identitySvc.GetTeam(ctx, scope.FamilyKey)
		if err != nil {
			return nil, err
		}
		teamExternalIDs = team.ExternalIDs
		for _, leagueID := range team.Leagues {
			lg, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
			if err != nil {
				return nil, fmt.Errorf("get league: %w", err)
			}
			if !exists {
				s.logger.WarnContext(ctx, "team references unknown league",
					"family_key", scope.FamilyKey,
					"league_id", leagueID)
				continue
			}
			leagues = append(leagues, lg)
		}
	}

	var tasks []fetchTask
	for _, lg := range leagues {
		for _, src := range s.sources {
			if !src.Adapter.Covers(lg.ID) {
				continue
			}
			if len(lg.Providers) > 0 && !leagueAllowsProvider(lg, src.Adapter.Name()) {
				continue
			}
			tasks = append(tasks, fetchTask{
				runtime: src,
				request: FetchRequest{
					LeagueID:       lg.ID,
					TeamExternalID: teamExternalIDs[src.Adapter.Name()],
					Season:         lg.Season,
					From:           scope.From,
					To:             scope.To.AddDate(0, 0, 1),
				},
			})
		}
	}
	return tasks, nil
}

func leagueAllowsProvider(lg league.League, provider string) bool {
	for _, p := range lg.Providers {
		if p == provider {
			return true
		}
	}
	return false
}

// fetchAll fans tasks out on the per-provider pools and gathers whatever
// succeeded. A failed fetch contributes a report row, never an error: one
// provider's outage must not abort the pass.
func (s *ReconcileService) fetchAll(ctx context.Context, scope schedule.Scope, tasks []fetchTask) ([]schedule.RawFixture, []SourceReport) {
	reportCh := make(chan SourceReport, len(tasks))
	recordCh := make(chan []schedule.RawFixture, len(tasks))

	var workers sync.WaitGroup
	for _, task := range tasks {
		task := task
		run := func() {
			defer workers.Done()

			start := time.Now()
			report := SourceReport{
				Provider: task.runtime.Adapter.Name(),
				LeagueID: task.request.LeagueID,
			}

			fetchCtx := ctx
			cancel := func() {}
			if task.runtime.Timeout > 0 {
				fetchCtx, cancel = context.WithTimeout(ctx, task.runtime.Timeout)
			}
			res, err := task.runtime.Adapter.FetchFixtures(fetchCtx, task.request)
			cancel()

			report.DurationMs = time.Since(start).Milliseconds()
			if err != nil {
				report.Status = fetchStatusFailed
				report.Message = err.Error()
				s.logger.WarnContext(ctx, "source fetch failed",
					"provider", report.Provider,
					"league_id", report.LeagueID,
					"error", err)
				reportCh <- report
				return
			}

			kept := make([]schedule.RawFixture, 0, len(res.Fixtures))
			for _, rec := range res.Fixtures {
				if !scope.Covers(rec.TipoffUTC) {
					continue
				}
				kept = append(kept, rec)
			}

			report.Status = fetchStatusSuccess
			report.Fixtures = len(kept)
			report.Skipped = res.SkippedRecords
			recordCh <- kept
			reportCh <- report
		}

		workers.Add(1)
		if task.runtime.Pool != nil {
			if err := task.runtime.Pool.Submit(run); err != nil {
				workers.Done()
				reportCh <- SourceReport{
					Provider: task.runtime.Adapter.Name(),
					LeagueID: task.request.LeagueID,
					Status:   fetchStatusFailed,
					Message:  fmt.Sprintf("submit to worker pool: %v", err),
				}
			}
			continue
		}
		go run()
	}

	workers.Wait()
	close(reportCh)
	close(recordCh)

	var records []schedule.RawFixture
	for batch := range recordCh {
		records = append(records, batch...)
	}
	reports := make([]SourceReport, 0, len(tasks))
	for report := range reportCh {
		reports = append(reports, report)
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Provider != reports[j].Provider {
			return reports[i].Provider < reports[j].Provider
		}
		return reports[i].LeagueID < reports[j].LeagueID
	})

	return records, reports
}

// assemble turns raw provider records into the final fixture list: resolve
// names to families, merge duplicates, overlay curated display names and
// attach prospect links.
func (s *ReconcileService) assemble(ctx context.Context, scope schedule.Scope, records []schedule.RawFixture) ([]schedule.Fixture, error) {
	cfg := s.identitySvc.Config()

	// Resolve every distinct raw name once up front so the merge itself
	// stays pure and cheap.
	familyByName := make(map[string]string)
	for _, rec := range records {
		for _, name := range []string{rec.HomeName, rec.AwayName} {
			if _, done := familyByName[name]; done {
				continue
			}
			familyKey, err := s.identitySvc.FamilyOf(ctx, name)
			if err != nil {
				return nil, err
			}
			familyByName[name] = familyKey
		}
	}

	fixtures := schedule.Merge(records,
		func(rawName string) string {
			if familyKey, ok := familyByName[rawName]; ok {
				return familyKey
			}
			return identity.Normalize(rawName, cfg)
		},
		func(provider string) bool { return s.liveCapable[provider] },
		s.now(),
	)

	if scope.Kind == schedule.ScopeTeamWindow {
		target, err := s.identitySvc.FamilyOf(ctx, scope.FamilyKey)
		if err != nil {
			return nil, err
		}
		kept := fixtures[:0]
		for _, fx := range fixtures {
			if fx.HomeFamilyKey == target || fx.AwayFamilyKey == target {
				kept = append(kept, fx)
			}
		}
		fixtures = kept
	}

	if err := s.overlayIdentities(ctx, scope, fixtures); err != nil {
		return nil, err
	}
	if err := s.linkProspects(ctx, scope, fixtures); err != nil {
		return nil, err
	}
	return fixtures, nil
}

// overlayIdentities replaces provider spellings with curated display names
// and surfaces sides that match no known family as audit events.
func (s *ReconcileService) overlayIdentities(ctx context.Context, scope schedule.Scope, fixtures []schedule.Fixture) error {
	type hit struct {
		team   identity.TeamIdentity
		exists bool
	}
	seen := make(map[string]hit)
	lookup := func(familyKey string) (hit, error) {
		if h, done := seen[familyKey]; done {
			return h, nil
		}
		team, exists, err := s.identitySvc.LookupFamily(ctx, familyKey)
		if err != nil {
			return hit{}, err
		}
		h := hit{team: team, exists: exists}
		seen[familyKey] = h
		return h, nil
	}

	scopeKey := s.ScopeKey(scope)
	for i := range fixtures {
		fx := &fixtures[i]

		var unknown []string
		home, err := lookup(fx.HomeFamilyKey)
		if err != nil {
			return err
		}
		if home.exists {
			if home.team.DisplayName != "" {
				fx.HomeName = home.team.DisplayName
			}
		} else {
			unknown = append(unknown, fx.HomeName)
		}

		away, err := lookup(fx.AwayFamilyKey)
		if err != nil {
			return err
		}
		if away.exists {
			if away.team.DisplayName != "" {
				fx.AwayName = away.team.DisplayName
			}
		} else {
			unknown = append(unknown, fx.AwayName)
		}

		if len(unknown) > 0 {
			s.recordAudit(ctx, curation.AuditEvent{
				Kind:     curation.KindUnmatchedFixture,
				ScopeKey: scopeKey,
				DedupKey: fx.DedupKey,
				RawNames: unknown,
			})
		}
	}
	return nil
}

// linkProspects attaches every tracked prospect whose team family matches a
// fixture side. Heuristic matches are linked but flagged and audited, never
// silently trusted or dropped.
func (s *ReconcileService) linkProspects(ctx context.Context, scope schedule.Scope, fixtures []schedule.Fixture) error {
	if len(fixtures) == 0 {
		return nil
	}

	tracked, err := s.prospectRepo.ListTracked(ctx)
	if err != nil {
		return fmt.Errorf("list tracked prospects: %w", err)
	}

	cfg := s.identitySvc.Config()
	scopeKey := s.ScopeKey(scope)

	for i := range fixtures {
		fx := &fixtures[i]

		for _, p := range tracked {
			if p.FamilyKey == "" {
				continue
			}
			side, match := matchFixtureSide(p.FamilyKey, *fx, cfg)
			if !match.Matched {
				continue
			}

			link := schedule.ProspectLink{
				ProspectID:    p.ID,
				Side:          side,
				Confidence:    string(match.Confidence),
				LowConfidence: match.Confidence == identity.ConfidenceHeuristic,
			}
			fx.Links = append(fx.Links, link)

			if link.LowConfidence {
				s.recordAudit(ctx, curation.AuditEvent{
					Kind:       curation.KindLowConfidenceLink,
					ScopeKey:   scopeKey,
					DedupKey:   fx.DedupKey,
					RawNames:   []string{fx.HomeName, fx.AwayName},
					Confidence: string(match.Confidence),
					ProspectID: p.ID,
				})
			}
		}

		sort.Slice(fx.Links, func(a, b int) bool {
			return fx.Links[a].ProspectID < fx.Links[b].ProspectID
		})

		if scope.Kind == schedule.ScopeTeamWindow && len(fx.Links) == 0 {
			s.recordAudit(ctx, curation.AuditEvent{
				Kind:     curation.KindUnmatchedFixture,
				ScopeKey: scopeKey,
				DedupKey: fx.DedupKey,
				RawNames: []string{fx.HomeName, fx.AwayName},
			})
		}
	}
	return nil
}

func matchFixtureSide(prospectFamily string, fx schedule.Fixture, cfg identity.Config) (string, identity.MatchResult) {
	if match := identity.MatchTeams(prospectFamily, fx.HomeFamilyKey, cfg); match.Matched {
		return schedule.SideHome, match
	}
	if match := identity.MatchTeams(prospectFamily, fx.AwayFamilyKey, cfg); match.Matched {
		return schedule.SideAway, match
	}
	return "", identity.MatchResult{}
}

func (s *ReconcileService) recordAudit(ctx context.Context, event curation.AuditEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record audit event failed",
			"kind", event.Kind,
			"dedup_key", event.DedupKey,
			"error", err)
	}
}

func (s *ReconcileService) writeSnapshot(ctx context.Context, key string, fixtures []schedule.Fixture) {
	payload, err := encodeScheduleSnapshot(fixtures)
	if err != nil {
		s.logger.ErrorContext(ctx, "encode schedule snapshot failed", "cache_key", key, "error", err)
		return
	}
	if err := s.snapshots.Set(ctx, key, payload); err != nil {
		s.logger.ErrorContext(ctx, "write schedule snapshot failed", "cache_key", key, "error", err)
	}
}
