package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/common"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
)

// CVStorage implements interfaces.CVStorage (spec §4.5).
type CVStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

func NewCVStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.CVStorage {
	return &CVStorage{db: db, logger: logger}
}

func (s *CVStorage) Create(ctx context.Context, cv *models.CV) error {
	if cv.ID == "" {
		cv.ID = common.NewCVID()
	}
	if cv.UploadedAt.IsZero() {
		cv.UploadedAt = time.Now().UTC()
	}

	var contentJSON sql.NullString
	if cv.Content != nil {
		b, err := json.Marshal(cv.Content)
		if err != nil {
			return fmt.Errorf("failed to marshal CV content: %w", err)
		}
		contentJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO cvs (id, user_id, status, active, failure_reason, content, uploaded_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, cv.ID, cv.UserID, string(cv.Status), boolToInt(cv.Active), cv.FailureReason,
		contentJSON, cv.UploadedAt.Unix(), nullableTime(cv.ProcessedAt))
	if err != nil {
		return fmt.Errorf("failed to create CV: %w", err)
	}
	return nil
}

const cvColumns = `SELECT id, user_id, status, active, failure_reason, content, uploaded_at, processed_at`

func (s *CVStorage) Get(ctx context.Context, id string) (*models.CV, error) {
	row := s.db.db.QueryRowContext(ctx, cvColumns+" FROM cvs WHERE id = ?", id)
	cv, err := scanCV(row)
	if isNotFound(err) {
		return nil, errNotFound
	}
	return cv, err
}

func (s *CVStorage) GetActiveForUser(ctx context.Context, userID string) (*models.CV, error) {
	row := s.db.db.QueryRowContext(ctx, cvColumns+" FROM cvs WHERE user_id = ? AND active = 1", userID)
	cv, err := scanCV(row)
	if isNotFound(err) {
		return nil, errNotFound
	}
	return cv, err
}

func (s *CVStorage) ListForUser(ctx context.Context, userID string) ([]models.CV, error) {
	rows, err := s.db.db.QueryContext(ctx, cvColumns+" FROM cvs WHERE user_id = ? ORDER BY uploaded_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list CVs: %w", err)
	}
	defer rows.Close()

	var cvs []models.CV
	for rows.Next() {
		cv, err := scanCVRows(rows)
		if err != nil {
			return nil, err
		}
		cvs = append(cvs, *cv)
	}
	return cvs, rows.Err()
}

func (s *CVStorage) UpdateStatus(ctx context.Context, id string, status models.CVStatus, content *models.CVContent, failureReason string) error {
	var contentJSON sql.NullString
	if content != nil {
		b, err := json.Marshal(content)
		if err != nil {
			return fmt.Errorf("failed to marshal CV content: %w", err)
		}
		contentJSON = sql.NullString{String: string(b), Valid: true}
	}

	var processedAt interface{}
	if status == models.CVStatusCompleted || status == models.CVStatusFailed {
		processedAt = time.Now().UTC().Unix()
	}

	_, err := s.db.db.ExecContext(ctx,
		"UPDATE cvs SET status = ?, content = ?, failure_reason = ?, processed_at = ? WHERE id = ?",
		string(status), contentJSON, failureReason, processedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update CV status: %w", err)
	}
	return nil
}

// SetActive deactivates every other CV for the user before activating id,
// inside one transaction, so the partial unique index on (user_id) WHERE
// active=1 never observes two active rows at once (spec §3, §9).
func (s *CVStorage) SetActive(ctx context.Context, userID, id string) error {
	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE cvs SET active = 0 WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to deactivate existing CVs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE cvs SET active = 1 WHERE id = ? AND user_id = ?", id, userID); err != nil {
		return fmt.Errorf("failed to activate CV: %w", err)
	}

	return tx.Commit()
}

func scanCV(row *sql.Row) (*models.CV, error) {
	var cv models.CV
	var status string
	var active int
	var contentJSON sql.NullString
	var uploadedAt int64
	var processedAt sql.NullInt64

	err := row.Scan(&cv.ID, &cv.UserID, &status, &active, &cv.FailureReason, &contentJSON, &uploadedAt, &processedAt)
	if err == sql.ErrNoRows {
		return nil, errNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan CV: %w", err)
	}

	hydrateCV(&cv, status, active, contentJSON, uploadedAt, processedAt)
	return &cv, nil
}

func scanCVRows(rows *sql.Rows) (*models.CV, error) {
	var cv models.CV
	var status string
	var active int
	var contentJSON sql.NullString
	var uploadedAt int64
	var processedAt sql.NullInt64

	err := rows.Scan(&cv.ID, &cv.UserID, &status, &active, &cv.FailureReason, &contentJSON, &uploadedAt, &processedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan CV row: %w", err)
	}

	hydrateCV(&cv, status, active, contentJSON, uploadedAt, processedAt)
	return &cv, nil
}

func hydrateCV(cv *models.CV, status string, active int, contentJSON sql.NullString, uploadedAt int64, processedAt sql.NullInt64) {
	cv.Status = models.CVStatus(status)
	cv.Active = active != 0
	cv.UploadedAt = time.Unix(uploadedAt, 0).UTC()
	if processedAt.Valid {
		t := time.Unix(processedAt.Int64, 0).UTC()
		cv.ProcessedAt = &t
	}
	if contentJSON.Valid {
		var content models.CVContent
		if err := json.Unmarshal([]byte(contentJSON.String), &content); err == nil {
			cv.Content = &content
		}
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
