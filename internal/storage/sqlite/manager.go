package sqlite

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/common"
	"github.com/ternarybob/jobhunter/internal/interfaces"
)

// Manager implements interfaces.StorageManager, wiring every per-entity
// storage implementation onto a single shared SQLite connection.
type Manager struct {
	db             *SQLiteDB
	kv             interfaces.KeyValueStorage
	job            interfaces.JobStorage
	recommendation interfaces.RecommendationStorage
	savedJob       interfaces.SavedJobStorage
	profile        interfaces.ProfileStorage
	cv             interfaces.CVStorage
	scrapeRun      interfaces.ScrapeRunStorage
	logger         arbor.ILogger
}

// NewManager creates a new SQLite storage manager. jobRetentionDays feeds
// JobStorage.Delete's retention-freshness-window check, and
// ingestFreshnessDays feeds JobStorage.Upsert's ingest freshness policy
// (spec §4.4, §4.3).
func NewManager(logger arbor.ILogger, config *common.SQLiteConfig, jobRetentionDays, ingestFreshnessDays int) (interfaces.StorageManager, error) {
	db, err := NewSQLiteDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:             db,
		kv:             NewKVStorage(db, logger),
		job:            NewJobStorage(db, jobRetentionDays, ingestFreshnessDays, logger),
		recommendation: NewRecommendationStorage(db, logger),
		savedJob:       NewSavedJobStorage(db, logger),
		profile:        NewProfileStorage(db, logger),
		cv:             NewCVStorage(db, logger),
		scrapeRun:      NewScrapeRunStorage(db, logger),
		logger:         logger,
	}

	logger.Info().Msg("Storage manager initialized (kv, job, recommendation, savedJob, profile, cv, scrapeRun)")

	return manager, nil
}

func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

func (m *Manager) JobStorage() interfaces.JobStorage {
	return m.job
}

func (m *Manager) RecommendationStorage() interfaces.RecommendationStorage {
	return m.recommendation
}

func (m *Manager) SavedJobStorage() interfaces.SavedJobStorage {
	return m.savedJob
}

func (m *Manager) ProfileStorage() interfaces.ProfileStorage {
	return m.profile
}

func (m *Manager) CVStorage() interfaces.CVStorage {
	return m.cv
}

func (m *Manager) ScrapeRunStorage() interfaces.ScrapeRunStorage {
	return m.scrapeRun
}

// DB returns the underlying database connection, used by the queue manager
// which shares this same SQLite file for its durable goqite table.
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.DB()
	}
	return nil
}

// Close closes the database connection.
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
