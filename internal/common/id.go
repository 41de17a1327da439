package common

import (
	"github.com/google/uuid"
)

// NewJobID generates a unique Job ID with the "job_" prefix.
func NewJobID() string {
	return "job_" + uuid.New().String()
}

// NewRecommendationID generates a unique Recommendation ID with the "rec_" prefix.
func NewRecommendationID() string {
	return "rec_" + uuid.New().String()
}

// NewSavedJobID generates a unique SavedJob ID with the "saved_" prefix.
func NewSavedJobID() string {
	return "saved_" + uuid.New().String()
}

// NewScrapeRunID generates a unique ScrapeRun ID with the "run_" prefix.
func NewScrapeRunID() string {
	return "run_" + uuid.New().String()
}

// NewCVID generates a unique CV ID with the "cv_" prefix.
func NewCVID() string {
	return "cv_" + uuid.New().String()
}
