package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/models"
)

// RemotiveAdapter fetches remote job postings from the Remotive public API
// (spec §4.2). The API is a plain unauthenticated JSON feed, optionally
// filtered by a search term.
type RemotiveAdapter struct {
	baseURL string
	client  *http.Client
	logger  arbor.ILogger
}

func NewRemotiveAdapter(baseURL string, timeoutSeconds int, logger arbor.ILogger) *RemotiveAdapter {
	return &RemotiveAdapter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
		logger:  logger,
	}
}

func (a *RemotiveAdapter) Name() models.SourceTag { return models.SourceRemotive }

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

type remotiveJob struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	CompanyName      string `json:"company_name"`
	CandidateRequiredLocation string `json:"candidate_required_location"`
	JobType          string `json:"job_type"`
	Description      string `json:"description"`
	URL              string `json:"url"`
	PublicationDate  string `json:"publication_date"`
	Salary           string `json:"salary"`
	Tags             []string `json:"tags"`
}

// Fetch queries Remotive's search endpoint, bounding the result slice at
// maxResults. The location argument is not applied, here or downstream:
// Remotive's own location field is a free-text region string.
func (a *RemotiveAdapter) Fetch(ctx context.Context, keyword, location string, maxResults int) ([]models.RawJob, error) {
	url := fmt.Sprintf("%s?search=%s", a.baseURL, strings.ReplaceAll(keyword, " ", "+"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("remotive: build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remotive: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remotive: unexpected status %d", resp.StatusCode)
	}

	var parsed remotiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("remotive: decode response: %w", err)
	}

	out := make([]models.RawJob, 0, len(parsed.Jobs))
	for _, j := range parsed.Jobs {
		if len(out) >= maxResults {
			break
		}

		var posted *time.Time
		if t, err := time.Parse("2006-01-02T15:04:05", j.PublicationDate); err == nil {
			posted = &t
		}

		out = append(out, models.RawJob{
			Title:       j.Title,
			Company:     j.CompanyName,
			Location:    j.CandidateRequiredLocation,
			Description: j.Description,
			ApplyLink:   j.URL,
			SourceID:    fmt.Sprintf("%d", j.ID),
			PostedAt:    posted,
			JobType:     mapRemotiveJobType(j.JobType),
			RemoteType:  models.RemoteTypeRemote,
		})
	}

	a.logger.Debug().Int("count", len(out)).Str("keyword", keyword).Msg("remotive fetch complete")
	return out, nil
}

func mapRemotiveJobType(raw string) models.JobType {
	switch strings.ToLower(raw) {
	case "full_time":
		return models.JobTypeFullTime
	case "part_time":
		return models.JobTypePartTime
	case "contract", "freelance":
		return models.JobTypeContract
	case "internship":
		return models.JobTypeInternship
	default:
		return models.JobTypeUnknown
	}
}
