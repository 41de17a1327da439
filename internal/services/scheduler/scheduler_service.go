package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/common"
	"github.com/ternarybob/jobhunter/internal/interfaces"
)

const (
	jobScrapeJobs              = "scrape_jobs"
	jobGenerateRecommendations = "generate_recommendations"
	jobCleanupOldJobs          = "cleanup_old_jobs"
	jobCleanupExpiredRecs      = "cleanup_expired_recommendations"
	jobCleanupExpiredSaved     = "cleanup_expired_saved_jobs"

	scrapeDeadline    = 30 * time.Minute
	recommendDeadline = 60 * time.Minute
	cleanupDeadline   = 10 * time.Minute
)

// jobEntry tracks one registered recurring task: its schedule, its
// currently-running state (for skip-if-overrunning semantics), and its
// last execution outcome.
type jobEntry struct {
	name      string
	schedule  string
	entryID   cron.EntryID
	enabled   bool
	run       func(ctx context.Context) error
	deadline  time.Duration
	isRunning bool
	lastRun   *time.Time
	lastError string
	lastOK    bool
}

// Service implements interfaces.SchedulerService (spec §4.1) on top of
// robfig/cron. Each of the five default tasks is mutually exclusive with
// itself only: an overrunning task skips its next scheduled firing rather
// than queuing a pile-up, and unrelated tasks never block on each other.
type Service struct {
	cron    *cron.Cron
	logger  arbor.ILogger
	jobMu   sync.Mutex
	jobs    map[string]*jobEntry
	execMu  map[string]*sync.Mutex
	running bool

	// shutdownCtx is the parent of every executeJob's deadline context, so
	// Stop cancels in-flight jobs immediately instead of only ever letting
	// their own deadline fire.
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// NewService wires the five default jobs against the provided orchestrator,
// engine, and retention service, using the cron expressions and timezone
// from cfg.
func NewService(
	cfg *common.SchedulerConfig,
	scraper interfaces.ScrapeOrchestrator,
	recommender interfaces.RecommendationEngine,
	retention interfaces.RetentionService,
	logger arbor.ILogger,
) (interfaces.SchedulerService, error) {
	loc := time.UTC
	if cfg.Timezone != "" && cfg.Timezone != "UTC" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Timezone, err)
		}
		loc = l
	}

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	s := &Service{
		cron:           cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow))),
		logger:         logger,
		jobs:           make(map[string]*jobEntry),
		execMu:         make(map[string]*sync.Mutex),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}

	defs := []struct {
		name     string
		schedule string
		deadline time.Duration
		run      func(ctx context.Context) error
	}{
		{jobScrapeJobs, cfg.ScrapeJobsCron, scrapeDeadline, func(ctx context.Context) error {
			_, err := scraper.Run(ctx, interfaces.ScrapeOptions{})
			return err
		}},
		{jobGenerateRecommendations, cfg.GenerateRecommendationsCron, recommendDeadline, recommender.RegenerateAll},
		{jobCleanupOldJobs, cfg.CleanupOldJobsCron, cleanupDeadline, func(ctx context.Context) error {
			_, err := retention.CleanupOldJobs(ctx)
			return err
		}},
		{jobCleanupExpiredRecs, cfg.CleanupExpiredRecsCron, cleanupDeadline, func(ctx context.Context) error {
			_, err := retention.CleanupExpiredRecommendations(ctx)
			return err
		}},
		{jobCleanupExpiredSaved, cfg.CleanupExpiredSavedCron, cleanupDeadline, func(ctx context.Context) error {
			_, err := retention.CleanupExpiredSavedJobs(ctx)
			return err
		}},
	}

	for _, d := range defs {
		if err := s.registerJob(d.name, d.schedule, d.deadline, d.run); err != nil {
			return nil, fmt.Errorf("failed to register job %s: %w", d.name, err)
		}
	}

	return s, nil
}

func (s *Service) registerJob(name, schedule string, deadline time.Duration, run func(ctx context.Context) error) error {
	if err := common.ValidateCronSchedule(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entry := &jobEntry{
		name:     name,
		schedule: schedule,
		enabled:  true,
		run:      run,
		deadline: deadline,
	}

	entryID, err := s.cron.AddFunc(schedule, func() { s.executeJob(name) })
	if err != nil {
		return fmt.Errorf("failed to add cron entry: %w", err)
	}

	entry.entryID = entryID
	s.jobs[name] = entry
	s.execMu[name] = &sync.Mutex{}

	return nil
}

// Start begins the cron scheduler. Any job missed entirely while the
// scheduler was down fires once at the next scheduled slot robfig/cron
// computes on Start, not a backfill of every missed firing.
func (s *Service) Start() error {
	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.cron.Start()
	s.running = true
	s.logger.Info().Msg("scheduler started")
	return nil
}

// Stop halts the cron scheduler, waiting (with a grace period) for any
// in-flight job to finish before returning.
func (s *Service) Stop() error {
	if !s.running {
		return nil
	}

	ctx := s.cron.Stop()
	s.shutdownCancel()
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Minute):
		s.logger.Warn().Msg("scheduler stop grace period elapsed with jobs still running")
	}

	s.running = false
	s.logger.Info().Msg("scheduler stopped")
	return nil
}

// executeJob is the cron-fired entry point: it skips the run entirely if
// the same job is still in flight (no queuing of overrunning instances),
// otherwise runs it under a deadline bound to its task type.
func (s *Service) executeJob(name string) {
	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	execMu := s.execMu[name]
	s.jobMu.Unlock()
	if !exists {
		return
	}

	if !execMu.TryLock() {
		s.logger.Warn().Str("job_name", name).Msg("previous run still in flight, skipping this firing")
		return
	}
	defer execMu.Unlock()

	s.jobMu.Lock()
	entry.isRunning = true
	s.jobMu.Unlock()

	ctx, cancel := context.WithTimeout(s.shutdownCtx, entry.deadline)
	defer cancel()

	start := time.Now()
	err := entry.run(ctx)
	completed := time.Now()

	s.jobMu.Lock()
	entry.isRunning = false
	entry.lastRun = &completed
	entry.lastOK = err == nil
	if err != nil {
		entry.lastError = err.Error()
	} else {
		entry.lastError = ""
	}
	s.jobMu.Unlock()

	if err != nil {
		s.logger.Error().Str("job_name", name).Err(err).Dur("duration", time.Since(start)).Msg("scheduled job failed")
	} else {
		s.logger.Info().Str("job_name", name).Dur("duration", time.Since(start)).Msg("scheduled job completed")
	}
}

// TriggerJob runs a registered job immediately, out of band from its cron
// schedule, subject to the same skip-if-running mutual exclusion. The
// manual-trigger API endpoints (POST /jobs/scrape, POST
// /jobs/recommendations/generate) do not use it; they call the
// orchestrator and engine directly.
func (s *Service) TriggerJob(name string) error {
	s.jobMu.Lock()
	_, exists := s.jobs[name]
	s.jobMu.Unlock()
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	go s.executeJob(name)
	return nil
}

// NextFire returns the next time name is scheduled to run, reading directly
// from the underlying cron.Entry so it always reflects the live schedule.
func (s *Service) NextFire(name string) (*time.Time, error) {
	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	s.jobMu.Unlock()
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}

	next := s.cron.Entry(entry.entryID).Next
	if next.IsZero() {
		return nil, nil
	}
	return &next, nil
}

func (s *Service) GetJobStatus(name string) (*interfaces.JobStatus, error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	entry, exists := s.jobs[name]
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}

	return jobStatusFromEntry(entry), nil
}

func (s *Service) GetAllJobStatuses() map[string]*interfaces.JobStatus {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	out := make(map[string]*interfaces.JobStatus, len(s.jobs))
	for name, entry := range s.jobs {
		out[name] = jobStatusFromEntry(entry)
	}
	return out
}

func jobStatusFromEntry(entry *jobEntry) *interfaces.JobStatus {
	var lastRun *string
	if entry.lastRun != nil {
		s := entry.lastRun.UTC().Format(time.RFC3339)
		lastRun = &s
	}

	return &interfaces.JobStatus{
		Name:      entry.name,
		Schedule:  entry.schedule,
		Enabled:   entry.enabled,
		Running:   entry.isRunning,
		LastRun:   lastRun,
		LastError: entry.lastError,
		LastRunOK: entry.lastOK,
	}
}
