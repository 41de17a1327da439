package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/common"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
)

// RecommendationStorage implements interfaces.RecommendationStorage (spec §4.7).
type RecommendationStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

func NewRecommendationStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.RecommendationStorage {
	return &RecommendationStorage{db: db, logger: logger}
}

// ReplaceForUser atomically swaps a user's entire recommendation set,
// so a regeneration run (spec §4.7) never leaves stale and fresh
// recommendations mixed for a user mid-write.
func (s *RecommendationStorage) ReplaceForUser(ctx context.Context, userID string, recs []models.Recommendation) error {
	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM recommendations WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to clear existing recommendations: %w", err)
	}

	for i := range recs {
		rec := &recs[i]
		if rec.ID == "" {
			rec.ID = common.NewRecommendationID()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now().UTC()
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO recommendations (id, user_id, job_id, match_score, reason, created_at, expires_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, rec.ID, userID, rec.JobID, rec.MatchScore, rec.Reason, rec.CreatedAt.Unix(), rec.ExpiresAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert recommendation: %w", err)
		}
	}

	return tx.Commit()
}

func (s *RecommendationStorage) ListForUser(ctx context.Context, userID string, page models.Pagination) (*models.Page[models.RecommendationWithJob], error) {
	pageSize := page.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}
	pageNum := page.Page
	if pageNum < 1 {
		pageNum = 1
	}

	now := time.Now().UTC().Unix()

	var total int
	if err := s.db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM recommendations WHERE user_id = ? AND expires_at > ?", userID, now).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count recommendations: %w", err)
	}

	// expires_at defines visibility, not just eventual deletion: an expired
	// recommendation must disappear from the list immediately, not wait for
	// the next retention sweep's DeleteExpired to run.
	query := `
		SELECT r.id, r.user_id, r.job_id, r.match_score, r.reason, r.created_at, r.expires_at, ` + jobColumns + `
		FROM recommendations r
		JOIN jobs j ON j.id = r.job_id
		WHERE r.user_id = ? AND r.expires_at > ?
		ORDER BY r.match_score DESC, j.scraped_at DESC, j.id
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.db.QueryContext(ctx, query, userID, now, pageSize, (pageNum-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	defer rows.Close()

	items := make([]models.RecommendationWithJob, 0, pageSize)
	for rows.Next() {
		var rec models.Recommendation
		var createdAt, expiresAt int64
		var job models.Job
		var source, jobType, remoteType, skillsJSON, requirementsJSON string
		var postedAtUnix sql.NullInt64
		var scrapedAtUnix int64

		err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.JobID, &rec.MatchScore, &rec.Reason, &createdAt, &expiresAt,
			&job.ID, &job.Title, &job.Company, &job.Location, &job.CanonicalLocation, &job.Description, &job.ApplyLink,
			&source, &job.SourceID, &postedAtUnix, &scrapedAtUnix, &jobType, &remoteType,
			&job.SalaryMin, &job.SalaryMax, &job.SalaryCurrency, &job.ExperienceLevel,
			&skillsJSON, &requirementsJSON, &job.CanonicalTitle, &job.Fingerprint, &job.CreatedByUserID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation row: %w", err)
		}

		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		rec.ExpiresAt = time.Unix(expiresAt, 0).UTC()
		hydrateJob(&job, source, jobType, remoteType, postedAtUnix, scrapedAtUnix, skillsJSON, requirementsJSON)

		items = append(items, models.RecommendationWithJob{Recommendation: rec, Job: job})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.Page[models.RecommendationWithJob]{Items: items, Page: pageNum, PageSize: pageSize, TotalCount: total}, nil
}

// DeleteExpired removes recommendations past ExpiresAt (spec §4.8).
func (s *RecommendationStorage) DeleteExpired(ctx context.Context) (int, error) {
	result, err := s.db.db.ExecContext(ctx, "DELETE FROM recommendations WHERE expires_at < ?", time.Now().UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired recommendations: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// DistinctUserIDs returns every user with at least one profile, used by the
// recommendation engine to iterate regeneration targets (spec §4.7).
func (s *RecommendationStorage) DistinctUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.db.QueryContext(ctx, "SELECT user_id FROM user_profiles ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
