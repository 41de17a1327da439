package retention

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/common"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
)

// Service implements interfaces.RetentionService (spec §4.8): three
// independent, idempotent sweeps safe to run in any order or at any time.
type Service struct {
	recs      interfaces.RecommendationStorage
	savedJobs interfaces.SavedJobStorage
	jobs      interfaces.JobStorage
	cfg       *common.RetentionConfig
	logger    arbor.ILogger
}

func NewService(
	recs interfaces.RecommendationStorage,
	savedJobs interfaces.SavedJobStorage,
	jobs interfaces.JobStorage,
	cfg *common.RetentionConfig,
	logger arbor.ILogger,
) interfaces.RetentionService {
	return &Service{recs: recs, savedJobs: savedJobs, jobs: jobs, cfg: cfg, logger: logger}
}

func (s *Service) CleanupExpiredRecommendations(ctx context.Context) (int, error) {
	count, err := s.recs.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired recommendations: %w", err)
	}
	s.logger.Info().Int("deleted", count).Msg("expired recommendations cleanup completed")
	return count, nil
}

func (s *Service) CleanupExpiredSavedJobs(ctx context.Context) (int, error) {
	count, err := s.savedJobs.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired saved jobs: %w", err)
	}
	s.logger.Info().Int("deleted", count).Msg("expired saved-job cleanup completed")
	return count, nil
}

// CleanupOldJobs deletes jobs past the retention window that are not
// referenced by any live SavedJob, protecting cascade-blocked rows (spec
// §4.4, §4.8).
func (s *Service) CleanupOldJobs(ctx context.Context) (int, error) {
	excludeJobIDs, err := s.referencedJobIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to collect referenced job ids: %w", err)
	}

	deleted, err := s.jobs.DeleteOlderThan(ctx, s.cfg.JobRetentionDays, excludeJobIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old jobs: %w", err)
	}

	s.logger.Info().
		Int("deleted", deleted).
		Int("protected_candidates", len(excludeJobIDs)).
		Msg("old jobs cleanup completed")

	return deleted, nil
}

// referencedJobIDs collects every job referenced by a live SavedJob of any
// user with a profile (users are listed via DistinctUserIDs), so
// CleanupOldJobs never deletes a job such a user still has bookmarked or is
// tracking through their application pipeline.
func (s *Service) referencedJobIDs(ctx context.Context) ([]string, error) {
	userIDs, err := s.recs.DistinctUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, userID := range userIDs {
		page := 1
		for {
			result, err := s.savedJobs.ListForUser(ctx, userID, "", models.Pagination{Page: page, PageSize: 100})
			if err != nil {
				return nil, err
			}
			for _, sj := range result.Items {
				seen[sj.JobID] = true
			}
			if len(result.Items) == 0 || page*100 >= result.TotalCount {
				break
			}
			page++
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids, nil
}
