package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/common"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
)

// JobStorage implements interfaces.JobStorage for SQLite (spec §4.4).
type JobStorage struct {
	db                  *SQLiteDB
	logger              arbor.ILogger
	retentionDays       int
	ingestFreshnessDays int
}

// NewJobStorage wires retentionDays into Delete's retention-freshness-window
// check (spec §4.4's delete(job_id, requester) contract) and
// ingestFreshnessDays into Upsert's ingest freshness policy (spec §4.3).
func NewJobStorage(db *SQLiteDB, retentionDays, ingestFreshnessDays int, logger arbor.ILogger) interfaces.JobStorage {
	return &JobStorage{db: db, retentionDays: retentionDays, ingestFreshnessDays: ingestFreshnessDays, logger: logger}
}

// Upsert resolves dedup identity (Source, SourceID) first, falling back to
// Fingerprint when SourceID is absent, and inserts, refreshes, or drops the
// incoming Job accordingly (spec §4.3, §4.4, §9's dedup-identity regime:
// the two identity regimes are never cross-merged).
func (s *JobStorage) Upsert(ctx context.Context, job *models.Job) (models.UpsertOutcome, error) {
	if job.ID == "" {
		job.ID = common.NewJobID()
	}

	var existing *models.Job
	var err error
	if job.SourceID != "" {
		existing, err = s.GetBySourceID(ctx, job.Source, job.SourceID)
	} else {
		existing, err = s.GetByFingerprint(ctx, job.Fingerprint)
	}
	if err != nil && !isNotFound(err) {
		return "", err
	}

	// Ingest freshness policy: a posting older than the freshness window
	// never gets a brand-new row; it only ever refreshes one already on file.
	if existing == nil && s.isStale(job) {
		return models.UpsertDropped, nil
	}

	if existing == nil {
		if err := s.insert(ctx, job); err != nil {
			return "", err
		}
		return models.UpsertInserted, nil
	}

	// Same posting resurfaced: refresh mutable fields under the original ID,
	// and bump ScrapedAt to mark it still-live for the retention sweep.
	job.ID = existing.ID
	job.ScrapedAt = time.Now().UTC()
	if err := s.update(ctx, job); err != nil {
		return "", err
	}
	return models.UpsertRefreshed, nil
}

// isStale reports whether job's PostedAt is older than the ingest freshness
// window. A job with no PostedAt is always treated as fresh.
func (s *JobStorage) isStale(job *models.Job) bool {
	if job.PostedAt == nil || s.ingestFreshnessDays <= 0 {
		return false
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -s.ingestFreshnessDays)
	return job.PostedAt.Before(cutoff)
}

func (s *JobStorage) insert(ctx context.Context, job *models.Job) error {
	skills, err := json.Marshal(job.Skills)
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}
	requirements, err := json.Marshal(job.Requirements)
	if err != nil {
		return fmt.Errorf("failed to marshal requirements: %w", err)
	}

	query := `
		INSERT INTO jobs (
			id, title, company, location, canonical_location, description, apply_link,
			source, source_id, posted_at, scraped_at, job_type, remote_type,
			salary_min, salary_max, salary_currency, experience_level,
			skills, requirements, canonical_title, fingerprint, created_by_user_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.db.ExecContext(ctx, query,
		job.ID, job.Title, job.Company, job.Location, job.CanonicalLocation, job.Description, job.ApplyLink,
		string(job.Source), job.SourceID, nullableTime(job.PostedAt), job.ScrapedAt.Unix(),
		string(job.JobType), string(job.RemoteType),
		job.SalaryMin, job.SalaryMax, job.SalaryCurrency, job.ExperienceLevel,
		string(skills), string(requirements), job.CanonicalTitle, job.Fingerprint, job.CreatedByUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

func (s *JobStorage) update(ctx context.Context, job *models.Job) error {
	skills, _ := json.Marshal(job.Skills)
	requirements, _ := json.Marshal(job.Requirements)

	query := `
		UPDATE jobs SET
			title = ?, company = ?, location = ?, canonical_location = ?, description = ?,
			apply_link = ?, posted_at = ?, scraped_at = ?, job_type = ?, remote_type = ?,
			salary_min = ?, salary_max = ?, salary_currency = ?, experience_level = ?,
			skills = ?, requirements = ?, canonical_title = ?, fingerprint = ?
		WHERE id = ?
	`

	_, err := s.db.db.ExecContext(ctx, query,
		job.Title, job.Company, job.Location, job.CanonicalLocation, job.Description,
		job.ApplyLink, nullableTime(job.PostedAt), job.ScrapedAt.Unix(), string(job.JobType), string(job.RemoteType),
		job.SalaryMin, job.SalaryMax, job.SalaryCurrency, job.ExperienceLevel,
		string(skills), string(requirements), job.CanonicalTitle, job.Fingerprint,
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

const jobColumns = `
	id, title, company, location, canonical_location, description, apply_link,
	source, source_id, posted_at, scraped_at, job_type, remote_type,
	salary_min, salary_max, salary_currency, experience_level,
	skills, requirements, canonical_title, fingerprint, created_by_user_id
`

func (s *JobStorage) Get(ctx context.Context, id string) (*models.Job, error) {
	row := s.db.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if isNotFound(err) {
		return nil, errNotFound
	}
	return job, err
}

func (s *JobStorage) GetBySourceID(ctx context.Context, source models.SourceTag, sourceID string) (*models.Job, error) {
	if sourceID == "" {
		return nil, errNotFound
	}
	row := s.db.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE source = ? AND source_id = ?", string(source), sourceID)
	job, err := scanJob(row)
	if isNotFound(err) {
		return nil, errNotFound
	}
	return job, err
}

func (s *JobStorage) GetByFingerprint(ctx context.Context, fingerprint string) (*models.Job, error) {
	row := s.db.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE fingerprint = ? ORDER BY scraped_at DESC LIMIT 1", fingerprint)
	job, err := scanJob(row)
	if isNotFound(err) {
		return nil, errNotFound
	}
	return job, err
}

// List applies JobFilters and returns a bounded Page (spec §4.4). Query is
// matched as a case-insensitive substring across title, company, and
// description; callers are expected to have already trimmed/capped it.
func (s *JobStorage) List(ctx context.Context, filters models.JobFilters, page models.Pagination) (*models.Page[models.Job], error) {
	where := []string{"1=1"}
	args := []interface{}{}

	if filters.Query != "" {
		like := "%" + strings.ToLower(filters.Query) + "%"
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(company) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, like, like, like)
	}
	if filters.Location != "" {
		where = append(where, "LOWER(location) LIKE ?")
		args = append(args, "%"+strings.ToLower(filters.Location)+"%")
	}
	if filters.Source != "" {
		where = append(where, "source = ?")
		args = append(args, string(filters.Source))
	}
	if filters.JobType != "" {
		where = append(where, "job_type = ?")
		args = append(args, string(filters.JobType))
	}
	if filters.RemoteType != "" {
		where = append(where, "remote_type = ?")
		args = append(args, string(filters.RemoteType))
	}
	if filters.MaxAgeDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -filters.MaxAgeDays).Unix()
		where = append(where, "scraped_at >= ?")
		args = append(args, cutoff)
	}

	whereClause := strings.Join(where, " AND ")

	pageSize := page.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}
	pageNum := page.Page
	if pageNum < 1 {
		pageNum = 1
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM jobs WHERE " + whereClause
	if err := s.db.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	listQuery := "SELECT " + jobColumns + " FROM jobs WHERE " + whereClause + " ORDER BY scraped_at DESC, id LIMIT ? OFFSET ?"
	listArgs := append(append([]interface{}{}, args...), pageSize, (pageNum-1)*pageSize)

	rows, err := s.db.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	items := make([]models.Job, 0, pageSize)
	for rows.Next() {
		job, err := scanJobRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.Page[models.Job]{Items: items, Page: pageNum, PageSize: pageSize, TotalCount: total}, nil
}

// Delete implements the delete(job_id, requester) contract (spec §4.4):
// the retention sweep may only delete a job past the retention freshness
// window with no live SavedJob referencing it; any other requester may
// only delete a job they submitted themselves.
func (s *JobStorage) Delete(ctx context.Context, id, requester string) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	referenced, err := s.hasSavedJobReferences(ctx, id)
	if err != nil {
		return err
	}

	switch {
	case requester == interfaces.SystemRequester:
		cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
		if job.ScrapedAt.After(cutoff) {
			return interfaces.ErrRetentionWindowActive
		}
		if referenced {
			return interfaces.ErrHasReferences
		}
	case job.CreatedByUserID != "" && job.CreatedByUserID == requester:
		if referenced {
			return interfaces.ErrHasReferences
		}
	default:
		return interfaces.ErrNotPermitted
	}

	if _, err := s.db.db.ExecContext(ctx, "DELETE FROM jobs WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

func (s *JobStorage) hasSavedJobReferences(ctx context.Context, jobID string) (bool, error) {
	var count int
	if err := s.db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM saved_jobs WHERE job_id = ?", jobID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check saved-job references: %w", err)
	}
	return count > 0, nil
}

// DeleteOlderThan removes jobs scraped more than maxAgeDays ago, except
// those in excludeJobIDs (spec §4.8's cascade protection; the retention
// sweep passes the jobs still referenced by a live saved bookmark).
func (s *JobStorage) DeleteOlderThan(ctx context.Context, maxAgeDays int, excludeJobIDs []string) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -maxAgeDays).Unix()

	query := "DELETE FROM jobs WHERE scraped_at < ?"
	args := []interface{}{cutoff}

	if len(excludeJobIDs) > 0 {
		placeholders := make([]string, len(excludeJobIDs))
		for i, id := range excludeJobIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += " AND id NOT IN (" + strings.Join(placeholders, ",") + ")"
	}

	result, err := s.db.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old jobs: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (s *JobStorage) CountSince(ctx context.Context, source models.SourceTag, since time.Time) (int, error) {
	var count int
	err := s.db.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM jobs WHERE source = ? AND scraped_at >= ?",
		string(source), since.Unix()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs since: %w", err)
	}
	return count, nil
}

func scanJob(row *sql.Row) (*models.Job, error) {
	var job models.Job
	var source, jobType, remoteType, skillsJSON, requirementsJSON string
	var postedAtUnix sql.NullInt64
	var scrapedAtUnix int64

	err := row.Scan(
		&job.ID, &job.Title, &job.Company, &job.Location, &job.CanonicalLocation, &job.Description, &job.ApplyLink,
		&source, &job.SourceID, &postedAtUnix, &scrapedAtUnix, &jobType, &remoteType,
		&job.SalaryMin, &job.SalaryMax, &job.SalaryCurrency, &job.ExperienceLevel,
		&skillsJSON, &requirementsJSON, &job.CanonicalTitle, &job.Fingerprint, &job.CreatedByUserID,
	)
	if err == sql.ErrNoRows {
		return nil, errNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	hydrateJob(&job, source, jobType, remoteType, postedAtUnix, scrapedAtUnix, skillsJSON, requirementsJSON)
	return &job, nil
}

func scanJobRows(rows *sql.Rows) (*models.Job, error) {
	var job models.Job
	var source, jobType, remoteType, skillsJSON, requirementsJSON string
	var postedAtUnix sql.NullInt64
	var scrapedAtUnix int64

	err := rows.Scan(
		&job.ID, &job.Title, &job.Company, &job.Location, &job.CanonicalLocation, &job.Description, &job.ApplyLink,
		&source, &job.SourceID, &postedAtUnix, &scrapedAtUnix, &jobType, &remoteType,
		&job.SalaryMin, &job.SalaryMax, &job.SalaryCurrency, &job.ExperienceLevel,
		&skillsJSON, &requirementsJSON, &job.CanonicalTitle, &job.Fingerprint, &job.CreatedByUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan job row: %w", err)
	}

	hydrateJob(&job, source, jobType, remoteType, postedAtUnix, scrapedAtUnix, skillsJSON, requirementsJSON)
	return &job, nil
}

func hydrateJob(job *models.Job, source, jobType, remoteType string, postedAtUnix sql.NullInt64, scrapedAtUnix int64, skillsJSON, requirementsJSON string) {
	job.Source = models.SourceTag(source)
	job.JobType = models.JobType(jobType)
	job.RemoteType = models.RemoteType(remoteType)
	job.ScrapedAt = time.Unix(scrapedAtUnix, 0).UTC()
	if postedAtUnix.Valid {
		t := time.Unix(postedAtUnix.Int64, 0).UTC()
		job.PostedAt = &t
	}
	_ = json.Unmarshal([]byte(skillsJSON), &job.Skills)
	_ = json.Unmarshal([]byte(requirementsJSON), &job.Requirements)
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}

var errNotFound = interfaces.ErrNotFound

func isNotFound(err error) bool {
	return err == errNotFound || err == sql.ErrNoRows
}
