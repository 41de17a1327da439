package recommend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/common"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
)

// Engine implements interfaces.RecommendationEngine (spec §4.7): per-user,
// it loads the candidate window, scores via the Matcher, and atomically
// replaces the user's live recommendation set.
type Engine struct {
	profiles interfaces.ProfileProvider
	jobs     interfaces.JobStorage
	recs     interfaces.RecommendationStorage
	matcher  interfaces.Matcher
	cfg      *common.RecommendConfig
	logger   arbor.ILogger
}

func NewEngine(
	profiles interfaces.ProfileProvider,
	jobs interfaces.JobStorage,
	recs interfaces.RecommendationStorage,
	matcher interfaces.Matcher,
	cfg *common.RecommendConfig,
	logger arbor.ILogger,
) interfaces.RecommendationEngine {
	return &Engine{profiles: profiles, jobs: jobs, recs: recs, matcher: matcher, cfg: cfg, logger: logger}
}

// RegenerateAll runs regeneration across every user with a profile, bounded
// to cfg.MaxConcurrentUsers in flight (spec §4.7, §5). A per-user failure
// is logged and counted; it never aborts the batch.
func (e *Engine) RegenerateAll(ctx context.Context) error {
	userIDs, err := e.recs.DistinctUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users for regeneration: %w", err)
	}

	concurrency := e.cfg.MaxConcurrentUsers
	if concurrency < 1 {
		concurrency = 1
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, failed := 0, 0

	for _, userID := range userIDs {
		sem <- struct{}{}
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := e.RegenerateForUser(ctx, userID); err != nil {
				e.logger.Warn().Err(err).Str("user_id", userID).Msg("recommendation regeneration failed for user, continuing batch")
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}(userID)
	}
	wg.Wait()

	e.logger.Info().
		Int("users_considered", len(userIDs)).
		Int("users_succeeded", succeeded).
		Int("users_failed", failed).
		Msg("recommendation regeneration batch completed")

	return nil
}

// RegenerateForUser implements the per-user procedure of spec §4.7: load
// profile + active CV (skip if missing), load the freshness-window
// candidate set, score via the Matcher, and atomically replace the user's
// live recommendations.
func (e *Engine) RegenerateForUser(ctx context.Context, userID string) error {
	candidate, err := e.profiles.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load profile for user %s: %w", userID, err)
	}
	if candidate == nil {
		return nil // no usable profile: skip this user, not an error
	}

	windowStart := time.Now().UTC().AddDate(0, 0, -e.cfg.WindowDays)
	candidates, err := e.loadCandidates(ctx, windowStart)
	if err != nil {
		return fmt.Errorf("failed to load candidate jobs: %w", err)
	}

	recs, err := e.matcher.Match(ctx, candidate, candidates, e.cfg.TopN)
	if err != nil {
		return fmt.Errorf("matcher failed: %w", err)
	}

	now := time.Now().UTC()
	expiresAt := now.AddDate(0, 0, e.cfg.ExpiryDays)
	for i := range recs {
		recs[i].CreatedAt = now
		recs[i].ExpiresAt = expiresAt
	}

	if err := e.recs.ReplaceForUser(ctx, userID, recs); err != nil {
		return fmt.Errorf("failed to replace recommendations: %w", err)
	}

	return nil
}

// loadCandidates pages through every Job scraped within the recommend
// window; a single large window rarely exceeds a few thousand rows, well
// within one regeneration's memory budget.
func (e *Engine) loadCandidates(ctx context.Context, windowStart time.Time) ([]models.Job, error) {
	maxAgeDays := int(time.Since(windowStart).Hours() / 24)

	var all []models.Job
	page := 1
	for {
		result, err := e.jobs.List(ctx, models.JobFilters{MaxAgeDays: maxAgeDays}, models.Pagination{Page: page, PageSize: 100})
		if err != nil {
			return nil, err
		}
		all = append(all, result.Items...)
		if len(all) >= result.TotalCount || len(result.Items) == 0 {
			break
		}
		page++
	}

	return all, nil
}
