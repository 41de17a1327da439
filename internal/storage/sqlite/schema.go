package sqlite

// schemaStatements creates every table this application owns. goqite's own
// queue table is created separately by NewSQLiteDB via goqite.Setup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS key_value_store (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS jobs (
		id                  TEXT PRIMARY KEY,
		title               TEXT NOT NULL,
		company             TEXT NOT NULL,
		location            TEXT NOT NULL,
		canonical_location  TEXT NOT NULL,
		description         TEXT NOT NULL,
		apply_link          TEXT NOT NULL,
		source              TEXT NOT NULL,
		source_id           TEXT NOT NULL DEFAULT '',
		posted_at           INTEGER,
		scraped_at          INTEGER NOT NULL,
		job_type            TEXT NOT NULL DEFAULT '',
		remote_type         TEXT NOT NULL DEFAULT '',
		salary_min          REAL,
		salary_max          REAL,
		salary_currency     TEXT NOT NULL DEFAULT '',
		experience_level    TEXT NOT NULL DEFAULT '',
		skills              TEXT NOT NULL DEFAULT '[]',
		requirements        TEXT NOT NULL DEFAULT '[]',
		canonical_title     TEXT NOT NULL,
		fingerprint         TEXT NOT NULL,
		created_by_user_id  TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_source_sourceid
		ON jobs(source, source_id) WHERE source_id != ''`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_fingerprint ON jobs(fingerprint)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_scraped_at ON jobs(scraped_at)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_canonical_title ON jobs(canonical_title)`,

	`CREATE TABLE IF NOT EXISTS user_profiles (
		user_id            TEXT PRIMARY KEY,
		primary_title      TEXT NOT NULL DEFAULT '',
		secondary_title    TEXT NOT NULL DEFAULT '',
		seniority_level    TEXT NOT NULL DEFAULT '',
		work_preference    TEXT NOT NULL DEFAULT '',
		industries         TEXT NOT NULL DEFAULT '[]',
		technical_skills   TEXT NOT NULL DEFAULT '[]',
		soft_skills        TEXT NOT NULL DEFAULT '[]',
		preferred_keywords TEXT NOT NULL DEFAULT '[]',
		writing_tone       TEXT NOT NULL DEFAULT '',
		ai_preferences     TEXT NOT NULL DEFAULT '',
		created_at         INTEGER NOT NULL,
		updated_at         INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS cvs (
		id             TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL,
		status         TEXT NOT NULL,
		active         INTEGER NOT NULL DEFAULT 0,
		failure_reason TEXT NOT NULL DEFAULT '',
		content        TEXT,
		uploaded_at    INTEGER NOT NULL,
		processed_at   INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cvs_user_id ON cvs(user_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_cvs_user_active
		ON cvs(user_id) WHERE active = 1`,

	`CREATE TABLE IF NOT EXISTS recommendations (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		job_id      TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		match_score REAL NOT NULL,
		reason      TEXT NOT NULL DEFAULT '',
		created_at  INTEGER NOT NULL,
		expires_at  INTEGER NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_recommendations_user_job
		ON recommendations(user_id, job_id)`,
	`CREATE INDEX IF NOT EXISTS idx_recommendations_user_expires
		ON recommendations(user_id, expires_at DESC)`,

	`CREATE TABLE IF NOT EXISTS saved_jobs (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		job_id     TEXT NOT NULL REFERENCES jobs(id) ON DELETE RESTRICT,
		status     TEXT NOT NULL,
		notes      TEXT NOT NULL DEFAULT '',
		saved_at   INTEGER NOT NULL,
		expires_at INTEGER,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_saved_jobs_user_job
		ON saved_jobs(user_id, job_id)`,
	`CREATE INDEX IF NOT EXISTS idx_saved_jobs_expires_at ON saved_jobs(expires_at)`,

	`CREATE TABLE IF NOT EXISTS scrape_runs (
		id             TEXT PRIMARY KEY,
		sources        TEXT NOT NULL DEFAULT '[]',
		keywords       TEXT NOT NULL DEFAULT '[]',
		status         TEXT NOT NULL,
		found          INTEGER NOT NULL DEFAULT 0,
		stored         INTEGER NOT NULL DEFAULT 0,
		duplicates     INTEGER NOT NULL DEFAULT 0,
		errored        INTEGER NOT NULL DEFAULT 0,
		error_message  TEXT NOT NULL DEFAULT '',
		started_at     INTEGER NOT NULL,
		completed_at   INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scrape_runs_started_at ON scrape_runs(started_at DESC)`,
}
