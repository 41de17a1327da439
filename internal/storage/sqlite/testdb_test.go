package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/common"
)

// newTestDB opens a fresh file-backed SQLite database under t.TempDir(), with
// the full schema and pragmas applied the same way production does.
func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()

	cfg := &common.SQLiteConfig{
		Path:          filepath.Join(t.TempDir(), "test.db"),
		Environment:   "test",
		CacheSizeMB:   4,
		BusyTimeoutMS: 5000,
		WALMode:       false,
	}

	db, err := NewSQLiteDB(arbor.NewLogger(), cfg)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
