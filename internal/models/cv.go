package models

import "time"

// CVStatus tracks the lifecycle of an uploaded CV through parsing (spec §3).
type CVStatus string

const (
	CVStatusPending    CVStatus = "pending"
	CVStatusProcessing CVStatus = "processing"
	CVStatusCompleted  CVStatus = "completed"
	CVStatusFailed     CVStatus = "failed"
)

// CVExperience is one parsed work-history entry.
type CVExperience struct {
	Title       string
	Company     string
	StartDate   string
	EndDate     string // empty means "present"
	Description string
}

// CVEducation is one parsed education entry.
type CVEducation struct {
	Institution string
	Degree      string
	FieldOfStudy string
	GraduationYear string
}

// CVContent is the structured content extracted from a CV by the parser.
type CVContent struct {
	FullName string
	Email    string
	Phone    string

	Experience []CVExperience
	Education  []CVEducation
	Skills     []string
	Summary    string
}

// CV is a user's uploaded curriculum vitae and its parse state (spec §3).
// Only one CV per user may be Active at a time.
type CV struct {
	ID     string
	UserID string

	Status       CVStatus
	Active       bool
	FailureReason string // set only when Status == CVStatusFailed

	Content *CVContent // nil until Status == CVStatusCompleted

	UploadedAt time.Time
	ProcessedAt *time.Time
}
