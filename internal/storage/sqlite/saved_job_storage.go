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

// SavedJobStorage implements interfaces.SavedJobStorage (spec §4.9).
type SavedJobStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

func NewSavedJobStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.SavedJobStorage {
	return &SavedJobStorage{db: db, logger: logger}
}

// Save inserts a bookmark, or updates notes/status if the user already
// bookmarked this job (the unique (user_id, job_id) index makes this an
// upsert rather than a duplicate-row error).
func (s *SavedJobStorage) Save(ctx context.Context, saved *models.SavedJob) error {
	if saved.ID == "" {
		saved.ID = common.NewSavedJobID()
	}
	now := time.Now().UTC()
	if saved.SavedAt.IsZero() {
		saved.SavedAt = now
	}
	saved.UpdatedAt = now

	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO saved_jobs (id, user_id, job_id, status, notes, saved_at, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, job_id) DO UPDATE SET
			status = excluded.status,
			notes = excluded.notes,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, saved.ID, saved.UserID, saved.JobID, string(saved.Status), saved.Notes,
		saved.SavedAt.Unix(), nullableTime(saved.ExpiresAt), saved.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

func (s *SavedJobStorage) Get(ctx context.Context, userID, jobID string) (*models.SavedJob, error) {
	row := s.db.db.QueryRowContext(ctx, savedJobColumns+" FROM saved_jobs WHERE user_id = ? AND job_id = ?", userID, jobID)
	saved, err := scanSavedJob(row)
	if isNotFound(err) {
		return nil, errNotFound
	}
	return saved, err
}

// UpdateStatus also clears ExpiresAt whenever the new status is no longer
// SavedJobStatusSaved (spec §9: only bookmarks still in "saved" state ever
// expire — once a user moves a job into a pipeline stage it is exempt).
func (s *SavedJobStorage) UpdateStatus(ctx context.Context, userID, jobID string, status models.SavedJobStatus, notes string) (*models.SavedJob, error) {
	saved, err := s.Get(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}

	var expiresAt interface{}
	if status == models.SavedJobStatusSaved {
		expiresAt = nullableTime(saved.ExpiresAt)
	} else {
		expiresAt = nil
	}

	now := time.Now().UTC()
	_, err = s.db.db.ExecContext(ctx,
		"UPDATE saved_jobs SET status = ?, notes = ?, expires_at = ?, updated_at = ? WHERE user_id = ? AND job_id = ?",
		string(status), notes, expiresAt, now.Unix(), userID, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to update saved job status: %w", err)
	}

	return s.Get(ctx, userID, jobID)
}

func (s *SavedJobStorage) ListForUser(ctx context.Context, userID string, status models.SavedJobStatus, page models.Pagination) (*models.Page[models.SavedJob], error) {
	where := "WHERE user_id = ?"
	args := []interface{}{userID}
	if status != "" {
		where += " AND status = ?"
		args = append(args, string(status))
	}

	pageSize := page.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}
	pageNum := page.Page
	if pageNum < 1 {
		pageNum = 1
	}

	var total int
	if err := s.db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM saved_jobs "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count saved jobs: %w", err)
	}

	listArgs := append(append([]interface{}{}, args...), pageSize, (pageNum-1)*pageSize)
	rows, err := s.db.db.QueryContext(ctx,
		savedJobColumns+" FROM saved_jobs "+where+" ORDER BY saved_at DESC LIMIT ? OFFSET ?", listArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved jobs: %w", err)
	}
	defer rows.Close()

	items := make([]models.SavedJob, 0, pageSize)
	for rows.Next() {
		saved, err := scanSavedJobRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *saved)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.Page[models.SavedJob]{Items: items, Page: pageNum, PageSize: pageSize, TotalCount: total}, nil
}

// DeleteExpired removes only bookmarks still in "saved" state whose
// ExpiresAt has passed (spec §4.8, §9).
func (s *SavedJobStorage) DeleteExpired(ctx context.Context) (int, error) {
	result, err := s.db.db.ExecContext(ctx,
		"DELETE FROM saved_jobs WHERE status = ? AND expires_at IS NOT NULL AND expires_at < ?",
		string(models.SavedJobStatusSaved), time.Now().UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired saved jobs: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (s *SavedJobStorage) Delete(ctx context.Context, userID, jobID string) error {
	_, err := s.db.db.ExecContext(ctx, "DELETE FROM saved_jobs WHERE user_id = ? AND job_id = ?", userID, jobID)
	if err != nil {
		return fmt.Errorf("failed to delete saved job: %w", err)
	}
	return nil
}

const savedJobColumns = `SELECT id, user_id, job_id, status, notes, saved_at, expires_at, updated_at`

func scanSavedJob(row *sql.Row) (*models.SavedJob, error) {
	var saved models.SavedJob
	var status string
	var savedAt, updatedAt int64
	var expiresAt sql.NullInt64

	err := row.Scan(&saved.ID, &saved.UserID, &saved.JobID, &status, &saved.Notes, &savedAt, &expiresAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, errNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan saved job: %w", err)
	}

	hydrateSavedJob(&saved, status, savedAt, expiresAt, updatedAt)
	return &saved, nil
}

func scanSavedJobRows(rows *sql.Rows) (*models.SavedJob, error) {
	var saved models.SavedJob
	var status string
	var savedAt, updatedAt int64
	var expiresAt sql.NullInt64

	err := rows.Scan(&saved.ID, &saved.UserID, &saved.JobID, &status, &saved.Notes, &savedAt, &expiresAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan saved job row: %w", err)
	}

	hydrateSavedJob(&saved, status, savedAt, expiresAt, updatedAt)
	return &saved, nil
}

func hydrateSavedJob(saved *models.SavedJob, status string, savedAt int64, expiresAt sql.NullInt64, updatedAt int64) {
	saved.Status = models.SavedJobStatus(status)
	saved.SavedAt = time.Unix(savedAt, 0).UTC()
	saved.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	if expiresAt.Valid {
		t := time.Unix(expiresAt.Int64, 0).UTC()
		saved.ExpiresAt = &t
	}
}
