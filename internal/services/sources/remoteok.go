package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/models"
)

// RemoteOKAdapter fetches postings from the RemoteOK public JSON feed
// (spec §4.2). The feed has no server-side search; keyword/location
// filtering is applied client-side against title, position tags, and
// description.
type RemoteOKAdapter struct {
	baseURL string
	client  *http.Client
	logger  arbor.ILogger
}

func NewRemoteOKAdapter(baseURL string, timeoutSeconds int, logger arbor.ILogger) *RemoteOKAdapter {
	return &RemoteOKAdapter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
		logger:  logger,
	}
}

func (a *RemoteOKAdapter) Name() models.SourceTag { return models.SourceRemoteOK }

type remoteOKJob struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Position    string   `json:"position"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Date        string   `json:"date"`
	SalaryMin   json.Number `json:"salary_min"`
	SalaryMax   json.Number `json:"salary_max"`
}

// Fetch downloads the full RemoteOK feed and filters it for keyword/location
// matches, honoring ctx cancellation on both the request and the bound.
func (a *RemoteOKAdapter) Fetch(ctx context.Context, keyword, location string, maxResults int) ([]models.RawJob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("remoteok: build request: %w", err)
	}
	req.Header.Set("User-Agent", "jobhunter/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remoteok: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remoteok: unexpected status %d", resp.StatusCode)
	}

	// The feed's first array element is a "legend" record, not a job; decode
	// into a slice of raw messages and skip anything without a "position" field.
	var rawItems []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rawItems); err != nil {
		return nil, fmt.Errorf("remoteok: decode response: %w", err)
	}

	keywordLower := strings.ToLower(keyword)
	locationLower := strings.ToLower(location)

	out := make([]models.RawJob, 0, maxResults)
	for _, raw := range rawItems {
		if len(out) >= maxResults {
			break
		}

		var j remoteOKJob
		if err := json.Unmarshal(raw, &j); err != nil || j.Position == "" {
			continue
		}

		if keywordLower != "" && !matchesKeyword(j.Position, j.Tags, j.Description, keywordLower) {
			continue
		}
		if locationLower != "" && !strings.Contains(strings.ToLower(j.Location), locationLower) {
			continue
		}

		var posted *time.Time
		if t, err := time.Parse(time.RFC3339, j.Date); err == nil {
			posted = &t
		}

		out = append(out, models.RawJob{
			Title:       j.Position,
			Company:     j.Company,
			Location:    j.Location,
			Description: j.Description,
			ApplyLink:   j.URL,
			SourceID:    j.ID,
			PostedAt:    posted,
			RemoteType:  models.RemoteTypeRemote,
			SalaryMin:   parseSalary(j.SalaryMin),
			SalaryMax:   parseSalary(j.SalaryMax),
		})
	}

	a.logger.Debug().Int("count", len(out)).Str("keyword", keyword).Msg("remoteok fetch complete")
	return out, nil
}

func matchesKeyword(title string, tags []string, description, keywordLower string) bool {
	if strings.Contains(strings.ToLower(title), keywordLower) {
		return true
	}
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), keywordLower) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(description), keywordLower)
}

func parseSalary(n json.Number) *float64 {
	if n == "" {
		return nil
	}
	v, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return nil
	}
	return &v
}
