package app

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobhunter/internal/common"
	"github.com/ternarybob/jobhunter/internal/handlers"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
	"github.com/ternarybob/jobhunter/internal/queue"
	"github.com/ternarybob/jobhunter/internal/services/embeddings"
	"github.com/ternarybob/jobhunter/internal/services/llm"
	"github.com/ternarybob/jobhunter/internal/services/matcher"
	"github.com/ternarybob/jobhunter/internal/services/normalize"
	"github.com/ternarybob/jobhunter/internal/services/profile"
	"github.com/ternarybob/jobhunter/internal/services/recommend"
	"github.com/ternarybob/jobhunter/internal/services/retention"
	"github.com/ternarybob/jobhunter/internal/services/scheduler"
	"github.com/ternarybob/jobhunter/internal/services/scrape"
	"github.com/ternarybob/jobhunter/internal/services/sources"
	"github.com/ternarybob/jobhunter/internal/storage/sqlite"
)

// App holds every wired dependency of the job-hunting backend: storage,
// the scrape/match/recommend/retention pipeline, the scheduler, and the
// HTTP layer, all wired by New.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	QueueManager   *queue.Manager

	LLMService       interfaces.LLMService
	EmbeddingService interfaces.EmbeddingService
	SourceRegistry   *sources.Registry
	Normalizer       interfaces.Normalizer
	ProfileProvider  interfaces.ProfileProvider
	Matcher          interfaces.Matcher

	ScrapeOrchestrator   interfaces.ScrapeOrchestrator
	RecommendationEngine interfaces.RecommendationEngine
	RetentionService     interfaces.RetentionService
	SchedulerService     interfaces.SchedulerService

	// externalAdapter is the concrete *sources.ExternalAdapter behind
	// SourceRegistry's entry for models.SourceExternal, recovered via type
	// assertion since ExtractFromURL/ExtractFromText are not part of the
	// SourceAdapter interface the registry deals in.
	externalAdapter *sources.ExternalAdapter

	HealthHandler          *handlers.HealthHandler
	JobsHandler            *handlers.JobsHandler
	RecommendationsHandler *handlers.RecommendationsHandler
	ScrapeHandler          *handlers.ScrapeHandler
	ExternalHandler        *handlers.ExternalHandler
	ApplicationsHandler    *handlers.ApplicationsHandler
}

// New wires every dependency in order: storage first (everything else reads
// or writes through it), then the capability services (LLM, embeddings),
// then the domain pipeline (sources -> normalizer -> orchestrator, profile
// -> matcher -> recommender, retention), then the scheduler on top.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initCapabilityServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize capability services: %w", err)
	}

	if err := app.initDomainServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize domain services: %w", err)
	}

	if err := app.initScheduler(); err != nil {
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("environment", cfg.Environment).
		Bool("claude_configured", cfg.Claude.APIKey != "" || app.LLMService != nil).
		Msg("application initialization complete")

	return app, nil
}

// initStorage opens the SQLite connection and the goqite-backed queue that
// shares it.
func (a *App) initStorage() error {
	storageManager, err := sqlite.NewManager(a.Logger, &a.Config.Storage.SQLite, a.Config.Retention.JobRetentionDays, a.Config.Retention.IngestFreshnessDays)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	a.StorageManager = storageManager

	a.Logger.Info().
		Str("path", a.Config.Storage.SQLite.Path).
		Bool("wal_mode", a.Config.Storage.SQLite.WALMode).
		Msg("storage layer initialized")

	sqliteMgr, ok := storageManager.(*sqlite.Manager)
	if !ok {
		return fmt.Errorf("unexpected storage manager implementation")
	}
	db, ok := sqliteMgr.DB().(*sql.DB)
	if !ok {
		return fmt.Errorf("storage manager did not expose a *sql.DB connection")
	}

	qm, err := queue.NewManager(db, "scrape_fetch")
	if err != nil {
		return fmt.Errorf("failed to create queue manager: %w", err)
	}
	a.QueueManager = qm

	return nil
}

// initCapabilityServices wires the LLM (Claude) and embedding capabilities.
// Both degrade gracefully when unconfigured rather than failing startup:
// the external source adapter and CV parsing skip when LLMService is nil,
// and the Matcher returns empty recommendations when embeddings are
// unavailable.
func (a *App) initCapabilityServices() error {
	if a.Config.Claude.APIKey != "" {
		claudeService, err := llm.NewClaudeService(&a.Config.Claude, a.StorageManager, a.Logger)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Claude service unavailable, external adapter and CV parsing will be disabled")
		} else {
			a.LLMService = claudeService
		}
	}

	a.EmbeddingService = embeddings.NewService(&a.Config.Embedding, a.Logger)

	return nil
}

// initDomainServices wires the scrape pipeline (sources -> normalizer ->
// orchestrator) and the recommendation pipeline (profile provider ->
// matcher -> engine), plus retention.
func (a *App) initDomainServices() error {
	a.SourceRegistry = sources.NewRegistry(&a.Config.Sources, a.LLMService, a.Logger)
	a.Normalizer = normalize.NewNormalizer(a.Logger)

	a.ScrapeOrchestrator = scrape.NewOrchestrator(
		a.SourceRegistry,
		a.Normalizer,
		a.StorageManager.JobStorage(),
		a.StorageManager.ScrapeRunStorage(),
		a.QueueManager,
		&a.Config.Sources,
		a.Logger,
	)

	if ext, ok := a.SourceRegistry.Get(models.SourceExternal).(*sources.ExternalAdapter); ok {
		a.externalAdapter = ext
	}

	a.ProfileProvider = profile.NewProvider(a.StorageManager.ProfileStorage(), a.StorageManager.CVStorage(), a.Logger)
	a.Matcher = matcher.NewMatcher(a.EmbeddingService, &a.Config.Matcher, a.Logger)

	a.RecommendationEngine = recommend.NewEngine(
		a.ProfileProvider,
		a.StorageManager.JobStorage(),
		a.StorageManager.RecommendationStorage(),
		a.Matcher,
		&a.Config.Recommend,
		a.Logger,
	)

	a.RetentionService = retention.NewService(
		a.StorageManager.RecommendationStorage(),
		a.StorageManager.SavedJobStorage(),
		a.StorageManager.JobStorage(),
		&a.Config.Retention,
		a.Logger,
	)

	return nil
}

// initScheduler registers the five default recurring tasks and starts the
// cron loop. Scheduler construction fails fast on an invalid cron
// expression, since that is a configuration error worth refusing to start
// on rather than silently skipping a job.
func (a *App) initScheduler() error {
	svc, err := scheduler.NewService(
		&a.Config.Scheduler,
		a.ScrapeOrchestrator,
		a.RecommendationEngine,
		a.RetentionService,
		a.Logger,
	)
	if err != nil {
		return err
	}
	a.SchedulerService = svc

	if err := a.SchedulerService.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	return nil
}

// initHandlers wires every HTTP handler over the already-constructed
// services. It cannot fail: handlers degrade at request time (e.g.
// ExternalHandler checks for a nil adapter), not at construction time.
func (a *App) initHandlers() {
	a.HealthHandler = handlers.NewHealthHandler(common.GetVersion())
	a.JobsHandler = handlers.NewJobsHandler(a.StorageManager.JobStorage(), a.Logger)
	a.RecommendationsHandler = handlers.NewRecommendationsHandler(a.StorageManager.RecommendationStorage(), a.RecommendationEngine, a.Logger)
	a.ScrapeHandler = handlers.NewScrapeHandler(a.ScrapeOrchestrator, a.StorageManager.ScrapeRunStorage(), a.Config.Sources.MaxResultsPerSourceCap, a.Logger)
	a.ExternalHandler = handlers.NewExternalHandler(a.externalAdapter, a.Normalizer, a.StorageManager.JobStorage(), llm.NewPerUserLimiter(a.Config.Auth.AIRateLimitPerMinutePerUser), a.Logger)
	a.ApplicationsHandler = handlers.NewApplicationsHandler(a.StorageManager.SavedJobStorage(), a.StorageManager.JobStorage(), a.Config.Retention.SavedMaxLive, a.Config.Retention.SavedExpiryDays, a.Logger)
}

// Close shuts down background work and releases the storage connection,
// in reverse dependency order.
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to stop scheduler service")
		}
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to close LLM service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("storage closed")
	}

	time.Sleep(50 * time.Millisecond)
	return nil
}
