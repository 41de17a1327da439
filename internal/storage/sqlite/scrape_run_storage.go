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

// ScrapeRunStorage implements interfaces.ScrapeRunStorage (spec §4.9).
type ScrapeRunStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

func NewScrapeRunStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.ScrapeRunStorage {
	return &ScrapeRunStorage{db: db, logger: logger}
}

func (s *ScrapeRunStorage) Create(ctx context.Context, run *models.ScrapeRun) error {
	if run.ID == "" {
		run.ID = common.NewScrapeRunID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	sources, err := json.Marshal(run.Sources)
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}
	keywords, err := json.Marshal(run.Keywords)
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}

	_, err = s.db.db.ExecContext(ctx, `
		INSERT INTO scrape_runs (
			id, sources, keywords, status, found, stored, duplicates, errored,
			error_message, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, string(sources), string(keywords), string(run.Status),
		run.Counts.Found, run.Counts.Stored, run.Counts.Duplicates, run.Counts.Errored,
		run.ErrorMessage, run.StartedAt.Unix(), nullableTime(run.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to create scrape run: %w", err)
	}
	return nil
}

func (s *ScrapeRunStorage) Update(ctx context.Context, run *models.ScrapeRun) error {
	_, err := s.db.db.ExecContext(ctx, `
		UPDATE scrape_runs SET
			status = ?, found = ?, stored = ?, duplicates = ?, errored = ?,
			error_message = ?, completed_at = ?
		WHERE id = ?
	`, string(run.Status), run.Counts.Found, run.Counts.Stored, run.Counts.Duplicates, run.Counts.Errored,
		run.ErrorMessage, nullableTime(run.CompletedAt), run.ID)
	if err != nil {
		return fmt.Errorf("failed to update scrape run: %w", err)
	}
	return nil
}

const scrapeRunColumns = `
	SELECT id, sources, keywords, status, found, stored, duplicates, errored,
		error_message, started_at, completed_at
`

func (s *ScrapeRunStorage) Get(ctx context.Context, id string) (*models.ScrapeRun, error) {
	row := s.db.db.QueryRowContext(ctx, scrapeRunColumns+" FROM scrape_runs WHERE id = ?", id)
	run, err := scanScrapeRun(row)
	if isNotFound(err) {
		return nil, errNotFound
	}
	return run, err
}

func (s *ScrapeRunStorage) GetLatest(ctx context.Context) (*models.ScrapeRun, error) {
	row := s.db.db.QueryRowContext(ctx, scrapeRunColumns+" FROM scrape_runs ORDER BY started_at DESC LIMIT 1")
	run, err := scanScrapeRun(row)
	if isNotFound(err) {
		return nil, errNotFound
	}
	return run, err
}

func scanScrapeRun(row *sql.Row) (*models.ScrapeRun, error) {
	var run models.ScrapeRun
	var status, sourcesJSON, keywordsJSON string
	var startedAt int64
	var completedAt sql.NullInt64

	err := row.Scan(&run.ID, &sourcesJSON, &keywordsJSON, &status,
		&run.Counts.Found, &run.Counts.Stored, &run.Counts.Duplicates, &run.Counts.Errored,
		&run.ErrorMessage, &startedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, errNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan scrape run: %w", err)
	}

	run.Status = models.ScrapeRunStatus(status)
	run.StartedAt = time.Unix(startedAt, 0).UTC()
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0).UTC()
		run.CompletedAt = &t
	}
	_ = json.Unmarshal([]byte(sourcesJSON), &run.Sources)
	_ = json.Unmarshal([]byte(keywordsJSON), &run.Keywords)

	return &run, nil
}
