package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/jobhunter/internal/models"
)

// KeyValueStorage is the generic settings/secrets store used for config
// KV-replacement, job-scheduler settings, and resolved API keys.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	GetAll(ctx context.Context) (map[string]string, error)
}

// JobStorage persists the canonical Job Store (spec §4.4).
type JobStorage interface {
	Upsert(ctx context.Context, job *models.Job) (models.UpsertOutcome, error)
	Get(ctx context.Context, id string) (*models.Job, error)
	GetBySourceID(ctx context.Context, source models.SourceTag, sourceID string) (*models.Job, error)
	GetByFingerprint(ctx context.Context, fingerprint string) (*models.Job, error)
	List(ctx context.Context, filters models.JobFilters, page models.Pagination) (*models.Page[models.Job], error)
	// Delete implements the delete(job_id, requester) contract: permitted
	// only if requester is SystemRequester and the job is past the
	// retention freshness window with no referencing SavedJob, or if
	// requester owns a user-submitted job. Returns ErrHasReferences,
	// ErrRetentionWindowActive, or ErrNotPermitted when blocked.
	Delete(ctx context.Context, id, requester string) error
	DeleteOlderThan(ctx context.Context, maxAgeDays int, excludeJobIDs []string) (int, error)
	CountSince(ctx context.Context, source models.SourceTag, since time.Time) (int, error)
}

// RecommendationStorage persists per-user Recommendation rows (spec §4.7).
type RecommendationStorage interface {
	ReplaceForUser(ctx context.Context, userID string, recs []models.Recommendation) error
	ListForUser(ctx context.Context, userID string, page models.Pagination) (*models.Page[models.RecommendationWithJob], error)
	DeleteExpired(ctx context.Context) (int, error)
	DistinctUserIDs(ctx context.Context) ([]string, error)
}

// SavedJobStorage persists user bookmarks and their pipeline state (spec §4.8).
type SavedJobStorage interface {
	Save(ctx context.Context, saved *models.SavedJob) error
	Get(ctx context.Context, userID, jobID string) (*models.SavedJob, error)
	UpdateStatus(ctx context.Context, userID, jobID string, status models.SavedJobStatus, notes string) (*models.SavedJob, error)
	ListForUser(ctx context.Context, userID string, status models.SavedJobStatus, page models.Pagination) (*models.Page[models.SavedJob], error)
	DeleteExpired(ctx context.Context) (int, error)
	Delete(ctx context.Context, userID, jobID string) error
}

// ProfileStorage persists UserProfile rows (spec §4.5).
type ProfileStorage interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	Upsert(ctx context.Context, profile *models.UserProfile) error
}

// CVStorage persists CV rows and their parsed content (spec §4.5).
type CVStorage interface {
	Create(ctx context.Context, cv *models.CV) error
	Get(ctx context.Context, id string) (*models.CV, error)
	GetActiveForUser(ctx context.Context, userID string) (*models.CV, error)
	ListForUser(ctx context.Context, userID string) ([]models.CV, error)
	UpdateStatus(ctx context.Context, id string, status models.CVStatus, content *models.CVContent, failureReason string) error
	SetActive(ctx context.Context, userID, id string) error
}

// ScrapeRunStorage persists ScrapeRun progress records (spec §4.9).
type ScrapeRunStorage interface {
	Create(ctx context.Context, run *models.ScrapeRun) error
	Update(ctx context.Context, run *models.ScrapeRun) error
	Get(ctx context.Context, id string) (*models.ScrapeRun, error)
	GetLatest(ctx context.Context) (*models.ScrapeRun, error)
}

// StorageManager aggregates every storage dependency behind one handle, the
// way service constructors (e.g. the LLM service) expect to receive it.
type StorageManager interface {
	KeyValueStorage() KeyValueStorage
	JobStorage() JobStorage
	RecommendationStorage() RecommendationStorage
	SavedJobStorage() SavedJobStorage
	ProfileStorage() ProfileStorage
	CVStorage() CVStorage
	ScrapeRunStorage() ScrapeRunStorage
	Close() error
}
