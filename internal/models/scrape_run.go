package models

import "time"

// ScrapeRunStatus tracks the lifecycle of one scrape orchestration (spec §4.9).
type ScrapeRunStatus string

const (
	ScrapeRunStatusPending   ScrapeRunStatus = "pending"
	ScrapeRunStatusRunning   ScrapeRunStatus = "running"
	ScrapeRunStatusCompleted ScrapeRunStatus = "completed"
	ScrapeRunStatusFailed    ScrapeRunStatus = "failed"
)

// ScrapeRunCounts accumulates per-source outcome totals as a run progresses.
type ScrapeRunCounts struct {
	Found      int
	Stored     int
	Duplicates int
	Dropped    int // stale postings past the ingest freshness window
	Errored    int
}

// ScrapeRun is the record of one scheduled or manually-triggered scrape
// (spec §4.2, §4.9), covering all requested sources and keywords.
type ScrapeRun struct {
	ID string

	Sources  []SourceTag
	Keywords []string

	Status ScrapeRunStatus

	Counts ScrapeRunCounts

	ErrorMessage string // set only when Status == ScrapeRunStatusFailed

	StartedAt   time.Time
	CompletedAt *time.Time
}
