package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/jobhunter/internal/models"
)

// Message is one turn of an LLM conversation (role is "system", "user", or
// "assistant").
type Message struct {
	Role    string
	Content string
}

// LLMMode reports whether an LLMService is backed by a cloud API or a local
// model.
type LLMMode string

const (
	LLMModeCloud LLMMode = "cloud"
	LLMModeLocal LLMMode = "local"
)

// LLMService is the capability used for CV parsing and external-job-posting
// extraction (spec §4.5, §4.2's external adapter).
type LLMService interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	HealthCheck(ctx context.Context) error
	GetMode() LLMMode
	Close() error
}

// EmbeddingService is the capability the Matcher depends on for scoring
// (spec §4.6). When no provider is configured, IsAvailable returns false and
// the Matcher degrades gracefully rather than failing a recommendation run.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	IsAvailable(ctx context.Context) bool
}

// SourceAdapter fetches RawJob postings from one external source (spec §4.2).
// Fetch must respect ctx cancellation and the caller-supplied bound on
// results per call.
type SourceAdapter interface {
	Name() models.SourceTag
	Fetch(ctx context.Context, keyword, location string, maxResults int) ([]models.RawJob, error)
}

// Normalizer cleans and canonicalizes one RawJob into a storable Job, and
// computes its dedup identity (spec §4.3).
type Normalizer interface {
	Normalize(raw models.RawJob, source models.SourceTag) (*models.Job, error)
}

// CandidateProfile is the read-only view the Matcher consumes: the user's
// structured profile, their active completed CV (nil if absent), and the
// embedding source text the CV/Profile Provider derives from both (spec
// §4.5). A nil *CandidateProfile means the user has no usable profile at
// all and must be skipped by the caller.
type CandidateProfile struct {
	Profile    *models.UserProfile
	CV         *models.CV
	SourceText string
}

// Matcher scores a user's candidate jobs against their profile/CV and
// returns a ranked top-N (spec §4.6).
type Matcher interface {
	Match(ctx context.Context, candidate *CandidateProfile, jobs []models.Job, topN int) ([]models.Recommendation, error)
}

// ProfileProvider is the read-only facade over UserProfile + active CV that
// the Recommendation Engine depends on, without knowing how either is
// stored (spec §4.5).
type ProfileProvider interface {
	Get(ctx context.Context, userID string) (*CandidateProfile, error)
}

// RecommendationEngine orchestrates regeneration of recommendations across
// users (spec §4.7).
type RecommendationEngine interface {
	RegenerateAll(ctx context.Context) error
	RegenerateForUser(ctx context.Context, userID string) error
}

// RetentionService runs the independent expiry/cleanup sweeps (spec §4.8).
type RetentionService interface {
	CleanupExpiredRecommendations(ctx context.Context) (int, error)
	CleanupExpiredSavedJobs(ctx context.Context) (int, error)
	CleanupOldJobs(ctx context.Context) (int, error)
}

// ScrapeOptions bounds one scrape invocation, whether scheduler-fired (zero
// value keywords/location, default MaxResultsPerSource) or API-triggered via
// POST /jobs/scrape (spec §4.9).
type ScrapeOptions struct {
	Sources             []models.SourceTag
	Keywords            []string
	Location            string
	MaxResultsPerSource int
}

// ScrapeOrchestrator runs one scrape across the configured source adapters
// and writes normalized jobs into the Job Store, tracking a ScrapeRun
// (spec §4.2, §4.9).
type ScrapeOrchestrator interface {
	Run(ctx context.Context, opts ScrapeOptions) (*models.ScrapeRun, error)
}

// JobStatus reports a scheduled task's last-known execution state, surfaced
// by the scheduler for diagnostics (spec §4.1).
type JobStatus struct {
	Name        string
	Schedule    string
	Enabled     bool
	Running     bool
	LastRun     *string
	LastError   string
	LastRunOK   bool
}

// SchedulerService runs the five default recurring tasks and exposes
// TriggerJob to run any one of them on demand (spec §4.1).
type SchedulerService interface {
	Start() error
	Stop() error
	TriggerJob(name string) error
	GetJobStatus(name string) (*JobStatus, error)
	GetAllJobStatuses() map[string]*JobStatus
	// NextFire reports the next scheduled firing time for an observability
	// hook over a registered task's cron entry.
	NextFire(name string) (*time.Time, error)
}
