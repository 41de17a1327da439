package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobhunter/internal/common"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
	"github.com/ternarybob/jobhunter/internal/queue"
	"github.com/ternarybob/jobhunter/internal/services/sources"
)

func marshalPayload(p queue.SourceFetchPayload) (json.RawMessage, error) {
	return json.Marshal(p)
}

func unmarshalPayload(raw json.RawMessage, p *queue.SourceFetchPayload) error {
	return json.Unmarshal(raw, p)
}

// Orchestrator implements interfaces.ScrapeOrchestrator (spec §4.2, §4.9):
// it enqueues one fetch task per (enabled source, keyword) pair, runs a
// bounded pool of workers draining the queue, normalises and upserts each
// result, and tracks progress on a ScrapeRun.
type Orchestrator struct {
	registry   *sources.Registry
	normalizer interfaces.Normalizer
	jobStore   interfaces.JobStorage
	runStore   interfaces.ScrapeRunStorage
	queue      *queue.Manager
	cfg        *common.SourcesConfig
	logger     arbor.ILogger
}

func NewOrchestrator(
	registry *sources.Registry,
	normalizer interfaces.Normalizer,
	jobStore interfaces.JobStorage,
	runStore interfaces.ScrapeRunStorage,
	qm *queue.Manager,
	cfg *common.SourcesConfig,
	logger arbor.ILogger,
) interfaces.ScrapeOrchestrator {
	return &Orchestrator{
		registry:   registry,
		normalizer: normalizer,
		jobStore:   jobStore,
		runStore:   runStore,
		queue:      qm,
		cfg:        cfg,
		logger:     logger,
	}
}

// workerCount bounds source-adapter fan-out to the number of enabled
// sources, so a slow/failing source never stalls the others past its own
// per-source timeout (spec §5).
func (o *Orchestrator) workerCount() int {
	n := len(o.registry.Enabled())
	if n < 1 {
		return 1
	}
	return n
}

func (o *Orchestrator) Run(ctx context.Context, opts interfaces.ScrapeOptions) (*models.ScrapeRun, error) {
	maxResults := opts.MaxResultsPerSource
	if maxResults <= 0 || maxResults > 100 {
		maxResults = o.cfg.MaxResultsPerSourceCap
	}

	adapters := o.registry.Enabled()
	if len(opts.Sources) > 0 {
		adapters = o.registry.Filter(opts.Sources)
	}

	keywords := opts.Keywords
	if len(keywords) == 0 {
		keywords = []string{""}
	}

	run := &models.ScrapeRun{
		Sources:   sourceNames(adapters),
		Keywords:  keywords,
		Status:    models.ScrapeRunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := o.runStore.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create scrape run: %w", err)
	}

	enqueued := 0
	for _, adapter := range adapters {
		for _, kw := range keywords {
			payload := queue.SourceFetchPayload{Source: string(adapter.Name()), Keyword: kw}
			raw, err := marshalPayload(payload)
			if err != nil {
				continue
			}
			msg := queue.Message{ScrapeRunID: run.ID, Type: queue.MessageTypeSourceFetch, Payload: raw}
			if err := o.queue.Enqueue(ctx, msg); err != nil {
				o.logger.Warn().Err(err).Str("source", string(adapter.Name())).Msg("failed to enqueue scrape task")
				continue
			}
			enqueued++
		}
	}

	var mu sync.Mutex
	counts := models.ScrapeRunCounts{}

	var wg sync.WaitGroup
	for i := 0; i < o.workerCount(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.worker(ctx, run.ID, adapters, opts.Location, maxResults, &mu, &counts)
		}()
	}
	wg.Wait()

	run.Counts = counts
	now := time.Now().UTC()
	run.CompletedAt = &now
	run.Status = models.ScrapeRunStatusCompleted
	if err := o.runStore.Update(ctx, run); err != nil {
		o.logger.Warn().Err(err).Str("run_id", run.ID).Msg("failed to persist scrape run completion")
	}

	o.logger.Info().
		Str("run_id", run.ID).
		Int("enqueued", enqueued).
		Int("found", counts.Found).
		Int("stored", counts.Stored).
		Int("duplicates", counts.Duplicates).
		Int("dropped", counts.Dropped).
		Int("errored", counts.Errored).
		Msg("scrape run completed")

	return run, nil
}

// worker drains the queue until empty, processing one (source, keyword)
// fetch task per message. A dedicated worker loop per enabled source keeps
// a single slow adapter from starving the others.
func (o *Orchestrator) worker(ctx context.Context, runID string, adapters []interfaces.SourceAdapter, location string, maxResults int, mu *sync.Mutex, counts *models.ScrapeRunCounts) {
	byName := make(map[models.SourceTag]interfaces.SourceAdapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}

	for {
		msg, done, err := o.queue.Receive(ctx)
		if err != nil {
			return // ErrNoMessage or ctx cancelled: this worker is finished
		}
		if msg.ScrapeRunID != runID {
			// Belongs to a different concurrent run; leave it for its own
			// orchestrator invocation and stop looking at this queue.
			return
		}

		var payload queue.SourceFetchPayload
		if err := unmarshalPayload(msg.Payload, &payload); err != nil {
			done()
			continue
		}

		adapter, ok := byName[models.SourceTag(payload.Source)]
		if !ok {
			done()
			continue
		}

		fetchCtx, cancel := context.WithTimeout(ctx, time.Duration(o.cfg.TimeoutSeconds)*time.Second)
		rawJobs, err := fetchWithRetry(fetchCtx, adapter, payload.Keyword, location, maxResults,
			o.cfg.FetchMaxAttempts, time.Duration(o.cfg.FetchRetryInitialDelayMS)*time.Millisecond, o.logger)
		cancel()

		if err != nil {
			o.logger.Warn().Err(err).Str("source", payload.Source).Msg("source adapter fetch exhausted its retries, continuing other sources")
			mu.Lock()
			counts.Errored++
			mu.Unlock()
			done()
			continue
		}

		for _, raw := range rawJobs {
			job, err := o.normalizer.Normalize(raw, adapter.Name())
			if err != nil {
				mu.Lock()
				counts.Errored++
				mu.Unlock()
				continue
			}

			mu.Lock()
			counts.Found++
			mu.Unlock()

			outcome, err := o.jobStore.Upsert(ctx, job)
			if err != nil {
				mu.Lock()
				counts.Errored++
				mu.Unlock()
				continue
			}

			mu.Lock()
			switch outcome {
			case models.UpsertInserted:
				counts.Stored++
			case models.UpsertRefreshed:
				counts.Duplicates++
			case models.UpsertDropped:
				counts.Dropped++
			}
			mu.Unlock()
		}

		done()
	}
}

// fetchWithRetry retries adapter.Fetch with exponential backoff, treating
// every fetch error as potentially transient (HTTP hiccups, timeouts) since
// source adapters don't distinguish permanent from transient failures
// themselves. Bounded attempts with doubling delay, the same shape as the
// teacher's retryWithExponentialBackoff but without a storage-specific
// error-string predicate.
func fetchWithRetry(ctx context.Context, adapter interfaces.SourceAdapter, keyword, location string, maxResults, maxAttempts int, initialDelay time.Duration, logger arbor.ILogger) ([]models.RawJob, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	delay := initialDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		rawJobs, err := adapter.Fetch(ctx, keyword, location, maxResults)
		if err == nil {
			return rawJobs, nil
		}
		lastErr = err

		if attempt < maxAttempts {
			logger.Warn().
				Int("attempt", attempt).
				Int("max_attempts", maxAttempts).
				Str("source", string(adapter.Name())).
				Str("delay", delay.String()).
				Err(err).
				Msg("source adapter fetch failed, retrying")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return nil, lastErr
}

func sourceNames(adapters []interfaces.SourceAdapter) []models.SourceTag {
	names := make([]models.SourceTag, len(adapters))
	for i, a := range adapters {
		names[i] = a.Name()
	}
	return names
}
