package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobhunter/internal/interfaces"
)

// Config represents the full application configuration.
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Sources     SourcesConfig   `toml:"sources"`
	Matcher     MatcherConfig   `toml:"matcher"`
	Recommend   RecommendConfig `toml:"recommend"`
	Retention   RetentionConfig `toml:"retention"`
	Claude      ClaudeConfig    `toml:"claude"`
	Embedding   EmbeddingConfig `toml:"embedding"`
	Auth        AuthConfig      `toml:"auth"`
}

type ServerConfig struct {
	Port                int `toml:"port"`
	Host                string `toml:"host"`
	MaxRequestBodyBytes int64  `toml:"max_request_body_bytes"` // cap on request bodies (default 10MiB)
}

type StorageConfig struct {
	SQLite SQLiteConfig `toml:"sqlite"`
}

// SQLiteConfig configures the pure-Go sqlite driver connection.
type SQLiteConfig struct {
	Path           string `toml:"path"`             // database file path
	ResetOnStartup bool   `toml:"reset_on_startup"` // delete database on startup; only honored in development
	Environment    string `toml:"-"`                // set from Config.Environment at load time, guards ResetOnStartup
	CacheSizeMB    int    `toml:"cache_size_mb"`
	BusyTimeoutMS  int    `toml:"busy_timeout_ms"`
	WALMode        bool   `toml:"wal_mode"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // default "15:04:05.000"
}

// SchedulerConfig holds the cron trigger schedule and timezone for the five
// default background jobs (scrape, recommend, and the three retention sweeps).
type SchedulerConfig struct {
	Timezone                    string `toml:"timezone"` // default "UTC"
	ScrapeJobsCron              string `toml:"scrape_jobs_cron"`
	GenerateRecommendationsCron string `toml:"generate_recommendations_cron"`
	CleanupOldJobsCron          string `toml:"cleanup_old_jobs_cron"`
	CleanupExpiredRecsCron      string `toml:"cleanup_expired_recommendations_cron"`
	CleanupExpiredSavedCron     string `toml:"cleanup_expired_saved_jobs_cron"`
}

// SourcesConfig holds per-source-adapter settings, including credentials for
// sources that require them (adzuna).
type SourcesConfig struct {
	TimeoutSeconds           int            `toml:"source_timeout_seconds"`
	MaxResultsPerSourceCap   int            `toml:"max_results_per_source_cap"`
	// FetchMaxAttempts and FetchRetryInitialDelayMS bound the retry/backoff
	// wrapped around each adapter fetch call: a fixed number of attempts,
	// doubling the delay after each failure.
	FetchMaxAttempts         int            `toml:"fetch_max_attempts"`
	FetchRetryInitialDelayMS int            `toml:"fetch_retry_initial_delay_ms"`
	Remotive                 RemotiveConfig `toml:"remotive"`
	RemoteOK                 RemoteOKConfig `toml:"remoteok"`
	Adzuna                   AdzunaConfig   `toml:"adzuna"`
	External                 ExternalConfig `toml:"external"`
}

type RemotiveConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
}

type RemoteOKConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
}

type AdzunaConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
	AppID   string `toml:"app_id"`
	AppKey  string `toml:"app_key"`
	Country string `toml:"country"` // default "gb"
}

// ExternalConfig configures the LLM-backed adapter that turns a pasted URL
// or raw text blob into a single normalised Job.
type ExternalConfig struct {
	Enabled bool `toml:"enabled"`
}

// MatcherConfig holds the scoring weights and floor used by the Matcher
// (§4.6): cosine similarity over embeddings plus a title-match boost.
type MatcherConfig struct {
	MinMatchScore   float64 `toml:"min_match_score"`   // default 0.20
	TitleBoostExact float64 `toml:"title_boost_exact"` // default 0.40
	TitleBoostPartial float64 `toml:"title_boost_partial"` // default 0.30
}

// RecommendConfig holds the recommendation-generation window/cap/expiry.
type RecommendConfig struct {
	TopN         int `toml:"top_n"`          // default 50
	ExpiryDays   int `toml:"expiry_days"`    // default 3
	WindowDays   int `toml:"window_days"`    // default 7
	MaxConcurrentUsers int `toml:"max_concurrent_users"` // bound on per-user regen fan-out, default 4
}

// RetentionConfig holds the three independent retention sweep parameters.
type RetentionConfig struct {
	JobRetentionDays       int `toml:"job_retention_days"`        // default 7
	SavedExpiryDays        int `toml:"saved_expiry_days"`         // default 10
	SavedMaxLive           int `toml:"saved_max_live"`            // default 10
	IngestFreshnessDays    int `toml:"ingest_freshness_days"`     // default 2
}

// ClaudeConfig mirrors the teacher's Anthropic configuration, trimmed to the
// fields CV parsing and the external adapter actually use.
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// EmbeddingConfig configures the embedding HTTP capability used by the
// Matcher. Absence of a usable endpoint/key means the capability degrades
// gracefully (Matcher returns an empty recommendation set for that user).
type EmbeddingConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

// AuthConfig configures the bearer token the read API expects on every
// request (§5/§6). A single shared token, resolved from environment first.
type AuthConfig struct {
	BearerToken                string `toml:"bearer_token"`
	AIRateLimitPerMinutePerUser int   `toml:"ai_rate_limit_per_minute_per_user"`
}

// NewDefaultConfig returns the configuration defaults named in the
// configuration table: recommend_top_n=50, recommend_expiry_days=3,
// recommend_window_days=7, retention_days=7, saved_expiry_days=10,
// saved_max_live=10, ingest_freshness_days=2, min_match_score=0.20,
// title_boost_exact=0.40, title_boost_partial=0.30,
// source_timeout_seconds=30, max_results_per_source_cap=100,
// max_request_body_bytes=10485760, scheduler_timezone=UTC.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:                8080,
			Host:                "localhost",
			MaxRequestBodyBytes: 10 * 1024 * 1024,
		},
		Storage: StorageConfig{
			SQLite: SQLiteConfig{
				Path:          "./data/jobhunter.db",
				Environment:   "development",
				CacheSizeMB:   64,
				BusyTimeoutMS: 5000,
				WALMode:       true,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Scheduler: SchedulerConfig{
			Timezone:                    "UTC",
			ScrapeJobsCron:              "0 6 * * *",
			GenerateRecommendationsCron: "0 7 * * *",
			CleanupOldJobsCron:          "10 0 * * *",
			CleanupExpiredRecsCron:      "5 0 * * *",
			CleanupExpiredSavedCron:     "0 0 * * *",
		},
		Sources: SourcesConfig{
			TimeoutSeconds:           30,
			MaxResultsPerSourceCap:   100,
			FetchMaxAttempts:         3,
			FetchRetryInitialDelayMS: 200,
			Remotive: RemotiveConfig{
				Enabled: true,
				BaseURL: "https://remotive.com/api/remote-jobs",
			},
			RemoteOK: RemoteOKConfig{
				Enabled: true,
				BaseURL: "https://remoteok.com/api",
			},
			Adzuna: AdzunaConfig{
				Enabled: false, // requires app_id/app_key
				BaseURL: "https://api.adzuna.com/v1/api/jobs",
				Country: "gb",
			},
			External: ExternalConfig{
				Enabled: true,
			},
		},
		Matcher: MatcherConfig{
			MinMatchScore:     0.20,
			TitleBoostExact:   0.40,
			TitleBoostPartial: 0.30,
		},
		Recommend: RecommendConfig{
			TopN:               50,
			ExpiryDays:         3,
			WindowDays:         7,
			MaxConcurrentUsers: 4,
		},
		Retention: RetentionConfig{
			JobRetentionDays:    7,
			SavedExpiryDays:     10,
			SavedMaxLive:        10,
			IngestFreshnessDays: 2,
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   4096,
			Timeout:     "2m",
			Temperature: 0.2,
		},
		Embedding: EmbeddingConfig{
			Timeout: "30s",
		},
		Auth: AuthConfig{
			AIRateLimitPerMinutePerUser: 10,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env.
// kvStorage can be nil (replacement will be skipped).
func LoadFromFile(kvStorage interfaces.KeyValueStorage, path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles(kvStorage)
	}
	return LoadFromFiles(kvStorage, path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier ones.
func LoadFromFiles(kvStorage interfaces.KeyValueStorage, paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	if kvStorage != nil {
		ctx := context.Background()
		kvMap, err := kvStorage.GetAll(ctx)
		if err != nil {
			logger := arbor.NewLogger()
			logger.Warn().Err(err).Msg("Failed to fetch KV map for config replacement, skipping replacement")
		} else {
			logger := arbor.NewLogger()
			if err := ReplaceInStruct(config, kvMap, logger); err != nil {
				logger.Warn().Err(err).Msg("Failed to replace key references in config")
			} else {
				logger.Info().Int("keys", len(kvMap)).Msg("Applied key/value replacements to config")
			}
		}
	}

	applyEnvOverrides(config)
	config.Storage.SQLite.Environment = config.Environment

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
// JOBHUNTER_* variables always take precedence over file/default values.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("JOBHUNTER_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("JOBHUNTER_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("JOBHUNTER_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if maxBody := os.Getenv("JOBHUNTER_SERVER_MAX_REQUEST_BODY_BYTES"); maxBody != "" {
		if mb, err := strconv.ParseInt(maxBody, 10, 64); err == nil {
			config.Server.MaxRequestBodyBytes = mb
		}
	}

	if dbPath := os.Getenv("JOBHUNTER_SQLITE_PATH"); dbPath != "" {
		config.Storage.SQLite.Path = dbPath
	}

	if level := os.Getenv("JOBHUNTER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("JOBHUNTER_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("JOBHUNTER_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range splitString(output, ",") {
			trimmed := trimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if tz := os.Getenv("JOBHUNTER_SCHEDULER_TIMEZONE"); tz != "" {
		config.Scheduler.Timezone = tz
	}

	if appID := os.Getenv("JOBHUNTER_ADZUNA_APP_ID"); appID != "" {
		config.Sources.Adzuna.AppID = appID
	}
	if appKey := os.Getenv("JOBHUNTER_ADZUNA_APP_KEY"); appKey != "" {
		config.Sources.Adzuna.AppKey = appKey
	}

	if minScore := os.Getenv("JOBHUNTER_MATCHER_MIN_MATCH_SCORE"); minScore != "" {
		if ms, err := strconv.ParseFloat(minScore, 64); err == nil {
			config.Matcher.MinMatchScore = ms
		}
	}

	if topN := os.Getenv("JOBHUNTER_RECOMMEND_TOP_N"); topN != "" {
		if n, err := strconv.Atoi(topN); err == nil {
			config.Recommend.TopN = n
		}
	}
	if expiryDays := os.Getenv("JOBHUNTER_RECOMMEND_EXPIRY_DAYS"); expiryDays != "" {
		if d, err := strconv.Atoi(expiryDays); err == nil {
			config.Recommend.ExpiryDays = d
		}
	}
	if windowDays := os.Getenv("JOBHUNTER_RECOMMEND_WINDOW_DAYS"); windowDays != "" {
		if d, err := strconv.Atoi(windowDays); err == nil {
			config.Recommend.WindowDays = d
		}
	}

	if retentionDays := os.Getenv("JOBHUNTER_RETENTION_JOB_DAYS"); retentionDays != "" {
		if d, err := strconv.Atoi(retentionDays); err == nil {
			config.Retention.JobRetentionDays = d
		}
	}
	if savedExpiry := os.Getenv("JOBHUNTER_RETENTION_SAVED_EXPIRY_DAYS"); savedExpiry != "" {
		if d, err := strconv.Atoi(savedExpiry); err == nil {
			config.Retention.SavedExpiryDays = d
		}
	}

	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("JOBHUNTER_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("JOBHUNTER_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	if embedKey := os.Getenv("JOBHUNTER_EMBEDDING_API_KEY"); embedKey != "" {
		config.Embedding.APIKey = embedKey
	}
	if embedURL := os.Getenv("JOBHUNTER_EMBEDDING_BASE_URL"); embedURL != "" {
		config.Embedding.BaseURL = embedURL
	}

	if token := os.Getenv("JOBHUNTER_BEARER_TOKEN"); token != "" {
		config.Auth.BearerToken = token
	}
	if rateLimit := os.Getenv("JOBHUNTER_AI_RATE_LIMIT_PER_MINUTE_PER_USER"); rateLimit != "" {
		if rl, err := strconv.Atoi(rateLimit); err == nil {
			config.Auth.AIRateLimitPerMinutePerUser = rl
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
// Command-line flags have the highest priority of all.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveAPIKey resolves an API key by name with environment variable
// priority. Resolution order: environment variables -> KV store -> config
// fallback -> error.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"anthropic_api_key": {"JOBHUNTER_CLAUDE_API_KEY"},
		"claude_api_key":    {"JOBHUNTER_CLAUDE_API_KEY"},
		"adzuna_app_id":     {"JOBHUNTER_ADZUNA_APP_ID"},
		"adzuna_app_key":    {"JOBHUNTER_ADZUNA_APP_KEY"},
		"embedding_api_key": {"JOBHUNTER_EMBEDDING_API_KEY"},
	}

	if name == "anthropic_api_key" || name == "claude_api_key" {
		if envValue := os.Getenv("ANTHROPIC_API_KEY"); envValue != "" {
			return envValue, nil
		}
	}

	if envVarNames, hasMappedEnv := keyToEnvMapping[name]; hasMappedEnv {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}

func splitString(s, sep string) []string {
	result := []string{}
	start := 0
	for i := 0; i < len(s); i++ {
		if i+len(sep) <= len(s) && s[i:i+len(sep)] == sep {
			result = append(result, s[start:i])
			start = i + len(sep)
			i = start - 1
		}
	}
	result = append(result, s[start:])
	return result
}

func trimSpace(s string) string {
	start := 0
	end := len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n' || s[start] == '\r') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}

// ValidateCronSchedule validates a cron schedule expression in the standard
// 5-field format (minute hour dom month dow).
func ValidateCronSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// DeepCloneConfig creates a deep copy of the Config struct, used to prevent
// mutation of shared config instances.
func DeepCloneConfig(c *Config) *Config {
	if c == nil {
		return nil
	}

	clone := *c

	if len(c.Logging.Output) > 0 {
		clone.Logging.Output = make([]string, len(c.Logging.Output))
		copy(clone.Logging.Output, c.Logging.Output)
	}

	return &clone
}
