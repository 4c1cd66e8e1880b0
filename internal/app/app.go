// Package app wires configuration, repositories, source adapters and
// services into a runnable engine. Repository selection is driven by DB_URL:
// empty runs everything in memory off the seed catalog, anything else runs
// against Postgres.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	ants "github.com/panjf2000/ants/v2"
	otelsql "github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/draftradar/tipoff/external/collegefeed"
	curationhook "github.com/draftradar/tipoff/external/curation"
	"github.com/draftradar/tipoff/external/heartbeat"
	"github.com/draftradar/tipoff/external/leaguesites"
	"github.com/draftradar/tipoff/external/probasket"
	"github.com/draftradar/tipoff/internal/config"
	"github.com/draftradar/tipoff/internal/domain/curation"
	"github.com/draftradar/tipoff/internal/domain/identity"
	"github.com/draftradar/tipoff/internal/domain/league"
	"github.com/draftradar/tipoff/internal/domain/prospect"
	"github.com/draftradar/tipoff/internal/domain/refreshrun"
	"github.com/draftradar/tipoff/internal/domain/schedule"
	cachedrepo "github.com/draftradar/tipoff/internal/infrastructure/repository/cache"
	"github.com/draftradar/tipoff/internal/infrastructure/repository/memory"
	"github.com/draftradar/tipoff/internal/infrastructure/repository/postgres"
	"github.com/draftradar/tipoff/internal/interfaces/httpapi"
	platformcache "github.com/draftradar/tipoff/internal/platform/cache"
	idgen "github.com/draftradar/tipoff/internal/platform/id"
	"github.com/draftradar/tipoff/internal/platform/logging"
	"github.com/draftradar/tipoff/internal/platform/resilience"
	"github.com/draftradar/tipoff/internal/usecase"
)

const (
	dbMaxOpenConns    = 16
	dbMaxIdleConns    = 8
	dbConnMaxLifetime = 30 * time.Minute

	heartbeatTimeout = 5 * time.Second
)

// App is the wired engine: the HTTP server, the refresh scheduler that keeps
// the snapshot cache warm, and the resources to release on shutdown.
type App struct {
	Server    *http.Server
	Scheduler *usecase.RefreshScheduler

	cleanups []func()
}

// Close releases worker pools and connections in reverse construction order.
func (a *App) Close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}

// snapshotBackend is the snapshot surface the engine needs end to end: the
// domain store plus the entry count the status endpoint reports.
type snapshotBackend interface {
	schedule.SnapshotStore
	Count(ctx context.Context) (int, error)
}

type repositories struct {
	leagues    league.Repository
	identities identity.Repository
	prospects  prospect.Repository
	curation   curation.Repository
	runs       refreshrun.Repository
	snapshots  snapshotBackend
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	displayTZ, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("load DISPLAY_TIMEZONE: %w", err)
	}

	a := &App{}

	repos, err := a.buildRepositories(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	idCfg, err := buildIdentityConfig(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	identitySvc := usecase.NewIdentityService(repos.identities, idCfg)

	// The catalog drives adapter coverage: which leagues each provider is
	// asked about and which venue zone backfills zoneless rows.
	catalog, err := repos.leagues.List(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("list league catalog: %w", err)
	}

	runtimes, breakers, err := a.buildSourceRuntimes(cfg, catalog, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	ids := idgen.NewUUIDGenerator()

	var curationSvc *usecase.CurationService
	if cfg.CurationWebhookEnabled {
		publisher := curationhook.NewWebhookPublisher(curationhook.WebhookPublisherConfig{
			URL:            cfg.CurationWebhookURL,
			Token:          cfg.CurationWebhookToken,
			Timeout:        cfg.CurationWebhookTimeout,
			CircuitBreaker: cfg.CurationCircuit,
		}, logger)
		if b := publisher.Breaker(); b != nil {
			breakers = append(breakers, b)
		}
		curationSvc = usecase.NewCurationService(repos.curation, publisher, ids, logger.With("component", "curation"))
	} else {
		curationSvc = usecase.NewCurationService(repos.curation, nil, ids, logger.With("component", "curation"))
	}

	leagueSvc := usecase.NewLeagueService(repos.leagues)
	reconcileSvc := usecase.NewReconcileService(
		runtimes,
		identitySvc,
		repos.leagues,
		repos.prospects,
		repos.snapshots,
		curationSvc,
		logger.With("component", "reconcile"),
	)
	scheduleQuery := usecase.NewScheduleQueryService(
		reconcileSvc,
		repos.snapshots,
		cfg.ScheduleTTLDefault,
		cfg.ScheduleTTLLive,
		logger.With("component", "schedule_query"),
	)
	prospectSvc := usecase.NewProspectService(repos.prospects, scheduleQuery)

	var pinger usecase.HeartbeatPinger
	if cfg.HeartbeatURL != "" {
		pinger = heartbeat.NewPinger(cfg.HeartbeatURL, heartbeatTimeout)
	}

	scheduler := usecase.NewRefreshScheduler(
		reconcileSvc,
		repos.leagues,
		repos.prospects,
		repos.snapshots,
		repos.runs,
		ids,
		pinger,
		usecase.RefreshSchedulerConfig{
			Interval:           cfg.RefreshInterval,
			ScopeConcurrency:   cfg.RefreshScopeConcurrency,
			ProspectWindowDays: cfg.ProspectWindowDays,
			StaleMaxAge:        cfg.ScheduleTTLDefault,
		},
		logger.With("component", "scheduler"),
	)

	statusSvc := usecase.NewStatusService(repos.snapshots, repos.runs, scheduler, breakers, cfg.ScheduleTTLDefault)

	handler := httpapi.NewHandler(
		leagueSvc,
		scheduleQuery,
		identitySvc,
		prospectSvc,
		curationSvc,
		statusSvc,
		scheduler,
		reconcileSvc,
		cfg.ProspectWindowDays,
		displayTZ,
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	if cfg.HTTPAddr == "" {
		a.Close()
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	a.Scheduler = scheduler

	return a, nil
}

func (a *App) buildRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, error) {
	var repos repositories

	if cfg.DBURL == "" {
		logger.Info("running with in-memory repositories", "reason", "DB_URL empty")
		repos = repositories{
			leagues:    memory.NewLeagueRepository(memory.SeedLeagues()),
			identities: memory.NewIdentityRepository(memory.SeedTeamIdentities()),
			prospects:  memory.NewProspectRepository(memory.SeedProspects()),
			curation:   memory.NewCurationRepository(0),
			runs:       memory.NewRefreshRunRepository(0),
			snapshots:  platformcache.NewStore(),
		}
	} else {
		db, err := openDatabase(ctx, cfg)
		if err != nil {
			return repositories{}, err
		}
		a.cleanups = append(a.cleanups, func() {
			if err := db.Close(); err != nil {
				logger.Error("close database", "error", err)
			}
		})

		if err := postgres.BootstrapSeed(ctx, db); err != nil {
			return repositories{}, fmt.Errorf("bootstrap seed: %w", err)
		}

		logger.Info("running with postgres repositories", "db", databaseName(cfg.DBURL))
		repos = repositories{
			leagues:    postgres.NewLeagueRepository(db),
			identities: postgres.NewIdentityRepository(db),
			prospects:  postgres.NewProspectRepository(db),
			curation:   postgres.NewCurationRepository(db),
			runs:       postgres.NewRefreshRunRepository(db),
			snapshots:  postgres.NewSnapshotStore(db),
		}
	}

	if cfg.CacheEnabled {
		memo := platformcache.NewMemo(cfg.CacheTTL)
		repos.leagues = cachedrepo.NewLeagueRepository(repos.leagues, memo)
		repos.identities = cachedrepo.NewIdentityRepository(repos.identities, memo)
		repos.prospects = cachedrepo.NewProspectRepository(repos.prospects, memo)
	}

	return repos, nil
}

func openDatabase(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := poolerCompatDSN(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(databaseName(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatTracedQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)

	return db, nil
}

func (a *App) buildSourceRuntimes(
	cfg config.Config,
	catalog []league.League,
	logger *logging.Logger,
) ([]usecase.SourceRuntime, []*resilience.CircuitBreaker, error) {
	var (
		runtimes []usecase.SourceRuntime
		breakers []*resilience.CircuitBreaker
	)

	coveredBy := func(provider string) []string {
		var ids []string
		for _, l := range catalog {
			for _, p := range l.Providers {
				if p == provider {
					ids = append(ids, l.ID)
					break
				}
			}
		}
		return ids
	}

	addRuntime := func(adapter usecase.SourceAdapter, breaker *resilience.CircuitBreaker, maxConcurrent int, timeout time.Duration) error {
		pool, err := newWorkerPool(maxConcurrent)
		if err != nil {
			return fmt.Errorf("create %s worker pool: %w", adapter.Name(), err)
		}
		a.cleanups = append(a.cleanups, pool.Release)

		runtimes = append(runtimes, usecase.SourceRuntime{Adapter: adapter, Pool: pool, Timeout: timeout})
		if breaker != nil {
			breakers = append(breakers, breaker)
		}

		logger.Info("source adapter registered",
			"provider", adapter.Name(),
			"live_capable", adapter.LiveCapable(),
			"max_concurrent", maxConcurrent,
		)
		return nil
	}

	if cfg.CollegeFeed.Enabled {
		client := collegefeed.NewClient(collegefeed.ClientConfig{
			BaseURL:        cfg.CollegeFeed.BaseURL,
			Token:          cfg.CollegeFeed.APIToken,
			Timeout:        cfg.CollegeFeed.Timeout,
			MaxRetries:     cfg.CollegeFeed.MaxRetries,
			Leagues:        coveredBy(collegefeed.ProviderName),
			Logger:         logger,
			CircuitBreaker: cfg.CollegeFeed.Circuit,
		})
		if err := addRuntime(client, client.Breaker(), cfg.CollegeFeed.MaxConcurrent, cfg.CollegeFeed.Timeout); err != nil {
			return nil, nil, err
		}
	}

	if cfg.ProBasket.Enabled {
		client := probasket.NewClient(probasket.ClientConfig{
			BaseURL:        cfg.ProBasket.BaseURL,
			APIKey:         cfg.ProBasket.APIToken,
			Timeout:        cfg.ProBasket.Timeout,
			MaxRetries:     cfg.ProBasket.MaxRetries,
			Leagues:        coveredBy(probasket.ProviderName),
			Logger:         logger,
			CircuitBreaker: cfg.ProBasket.Circuit,
		})
		if err := addRuntime(client, client.Breaker(), cfg.ProBasket.MaxConcurrent, cfg.ProBasket.Timeout); err != nil {
			return nil, nil, err
		}
	}

	if cfg.LeagueSites.Enabled {
		venueTZ := make(map[string]string, len(catalog))
		for _, l := range catalog {
			venueTZ[l.ID] = l.VenueTZ
		}
		client := leaguesites.NewClient(leaguesites.ClientConfig{
			Endpoints:      cfg.LeagueSitesEndpointByLeague,
			VenueTZ:        venueTZ,
			Timeout:        cfg.LeagueSites.Timeout,
			MaxRetries:     cfg.LeagueSites.MaxRetries,
			Logger:         logger,
			CircuitBreaker: cfg.LeagueSites.Circuit,
		})
		if err := addRuntime(client, client.Breaker(), cfg.LeagueSites.MaxConcurrent, cfg.LeagueSites.Timeout); err != nil {
			return nil, nil, err
		}
	}

	if len(runtimes) == 0 {
		logger.Warn("no source adapters enabled; schedule queries will serve empty snapshots")
	}

	return runtimes, breakers, nil
}

func newWorkerPool(size int) (*ants.Pool, error) {
	if size <= 0 {
		size = 4
	}
	return ants.NewPool(size)
}

func buildIdentityConfig(cfg config.Config) (identity.Config, error) {
	idCfg := identity.DefaultConfig()
	if cfg.IdentityHeuristicMinLen > 0 {
		idCfg.HeuristicMinLen = cfg.IdentityHeuristicMinLen
	}

	if cfg.AliasTablePath != "" {
		extra, err := loadAliasTable(cfg.AliasTablePath)
		if err != nil {
			return identity.Config{}, fmt.Errorf("load ALIAS_TABLE_PATH: %w", err)
		}
		idCfg.Aliases = identity.MergeAliases(idCfg.Aliases, identity.NormalizeAliasTable(extra, idCfg))
	}

	return idCfg, nil
}

// loadAliasTable reads a JSON object mapping team spellings onto family
// names. Both sides may be display forms; the merge normalizes them.
func loadAliasTable(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	table := make(map[string]string)
	if err := sonic.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parse alias table %s: %w", path, err)
	}

	return table, nil
}
