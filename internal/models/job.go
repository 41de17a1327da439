package models

import "time"

// SourceTag identifies which adapter produced a Job.
type SourceTag string

const (
	SourceRemotive SourceTag = "remotive"
	SourceRemoteOK SourceTag = "remoteok"
	SourceAdzuna   SourceTag = "adzuna"
	SourceExternal SourceTag = "external"
)

// JobType enumerates the employment type, when known.
type JobType string

const (
	JobTypeFullTime   JobType = "full_time"
	JobTypePartTime   JobType = "part_time"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
	JobTypeUnknown    JobType = ""
)

// RemoteType enumerates the work-location mode, when known.
type RemoteType string

const (
	RemoteTypeRemote RemoteType = "remote"
	RemoteTypeHybrid RemoteType = "hybrid"
	RemoteTypeOnsite RemoteType = "onsite"
	RemoteTypeUnknown RemoteType = ""
)

// Job is the canonical representation of an external posting (spec §3).
// Identity is the system-assigned ID; (Source, SourceID) is unique whenever
// SourceID is present.
type Job struct {
	ID          string
	Title       string
	Company     string

	Location          string // raw
	CanonicalLocation string // lowercased, region-folded

	Description string // free text, possibly HTML-bearing on ingest

	ApplyLink string // may be empty for user-added jobs

	Source   SourceTag
	SourceID string // may be empty

	PostedAt  *time.Time
	ScrapedAt time.Time // required, assigned on ingest

	JobType         JobType
	RemoteType      RemoteType
	SalaryMin       *float64
	SalaryMax       *float64
	SalaryCurrency  string
	ExperienceLevel string
	Skills          []string
	Requirements    []string

	// CanonicalTitle is the lowercased, punctuation-stripped title used for
	// fingerprinting and the Matcher's title-boost.
	CanonicalTitle string

	// Fingerprint is the stable dedup hash computed when SourceID is absent
	// or as a secondary key alongside (Source, SourceID).
	Fingerprint string

	// CreatedByUserID is set only for externally-submitted jobs
	// (Source == SourceExternal); empty for scraped jobs.
	CreatedByUserID string
}

// IsUserSubmitted reports whether this Job was created via the external
// adapter by an authenticated user rather than scraped from a source.
func (j *Job) IsUserSubmitted() bool {
	return j.Source == SourceExternal && j.CreatedByUserID != ""
}

// RawJob is what a Source Adapter produces before normalisation (spec §4.2).
type RawJob struct {
	Title       string
	Company     string
	Location    string
	Description string
	ApplyLink   string // empty if absent
	SourceID    string // empty if absent
	PostedAt    *time.Time

	JobType         JobType
	RemoteType      RemoteType
	SalaryMin       *float64
	SalaryMax       *float64
	SalaryCurrency  string
	ExperienceLevel string
}

// DedupDecision is the Normaliser's outcome for one RawJob (spec §4.3).
type DedupDecision string

const (
	DedupInsert         DedupDecision = "insert"
	DedupUpdateExisting DedupDecision = "update-existing"
	DedupDropDuplicate  DedupDecision = "drop-duplicate"
)

// JobFilters narrows a Job Store list() call (spec §4.4).
type JobFilters struct {
	Query      string // hard-capped at 100 chars; matched across title/company/description
	Location   string // substring
	Source     SourceTag
	JobType    JobType
	RemoteType RemoteType
	MaxAgeDays int // 0 means unbounded
}

// Pagination bounds a paged list() call. PageSize is capped at 100.
type Pagination struct {
	Page     int
	PageSize int
}

// Page is a generic bounded result page.
type Page[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	TotalCount int
}

// UpsertOutcome is the Job Store's upsert() result (spec §4.4).
type UpsertOutcome string

const (
	UpsertInserted UpsertOutcome = "inserted"
	UpsertRefreshed UpsertOutcome = "refreshed"
	UpsertDropped  UpsertOutcome = "dropped"
)
