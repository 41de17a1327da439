package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/interfaces"
)

// KVStorage implements interfaces.KeyValueStorage for SQLite. It backs
// config KV-replacement and resolved API keys.
type KVStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex // serializes writes to avoid SQLITE_BUSY under the single-connection pool
}

func NewKVStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.KeyValueStorage {
	return &KVStorage{db: db, logger: logger}
}

func (s *KVStorage) Get(ctx context.Context, key string) (string, error) {
	var value string
	query := `SELECT value FROM key_value_store WHERE key = ?`

	err := s.db.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("key '%s' not found", key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key: %w", err)
	}

	return value, nil
}

func (s *KVStorage) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	query := `
		INSERT INTO key_value_store (key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	if _, err := s.db.db.ExecContext(ctx, query, key, value, now, now); err != nil {
		return fmt.Errorf("failed to set key/value: %w", err)
	}

	return nil
}

func (s *KVStorage) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM key_value_store WHERE key = ?`

	result, err := s.db.db.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("key '%s' not found", key)
	}

	return nil
}

func (s *KVStorage) GetAll(ctx context.Context) (map[string]string, error) {
	query := `SELECT key, value FROM key_value_store`

	rows, err := s.db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all key/value pairs: %w", err)
	}
	defer rows.Close()

	kvMap := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		kvMap[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return kvMap, nil
}
