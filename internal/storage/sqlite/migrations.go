package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrate runs database migrations, in order, each inside its own
// transaction, recording applied versions in schema_migrations so restarts
// are idempotent.
func (s *SQLiteDB) migrate() error {
	ctx := context.Background()

	if err := s.createMigrationsTable(ctx); err != nil {
		return err
	}

	migrations := []migration{
		{version: 1, name: "initial_schema", up: migrateV1},
	}

	for _, m := range migrations {
		if err := s.runMigration(ctx, m); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
	}

	return nil
}

type migration struct {
	version int
	name    string
	up      func(context.Context, *sql.Tx) error
}

func (s *SQLiteDB) createMigrationsTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at INTEGER NOT NULL
	)`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *SQLiteDB) runMigration(ctx context.Context, m migration) error {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.version).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := m.up(ctx, tx); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, strftime('%s', 'now'))",
		m.version, m.name)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// migrateV1 creates the complete initial schema: key/value settings, the
// Job Store, user profiles and CVs, recommendations, saved-job bookmarks,
// and scrape run tracking.
func migrateV1(ctx context.Context, tx *sql.Tx) error {
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w", i, err)
		}
	}
	return nil
}
