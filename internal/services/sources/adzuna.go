package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/models"
)

// AdzunaAdapter fetches postings from the Adzuna job search API (spec §4.2).
// Adzuna requires an app_id/app_key pair and a two-letter country code.
type AdzunaAdapter struct {
	baseURL string
	appID   string
	appKey  string
	country string
	client  *http.Client
	logger  arbor.ILogger
}

func NewAdzunaAdapter(baseURL, appID, appKey, country string, timeoutSeconds int, logger arbor.ILogger) *AdzunaAdapter {
	if country == "" {
		country = "us"
	}
	return &AdzunaAdapter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		appID:   appID,
		appKey:  appKey,
		country: country,
		client:  &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
		logger:  logger,
	}
}

func (a *AdzunaAdapter) Name() models.SourceTag { return models.SourceAdzuna }

type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
}

type adzunaResult struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	RedirectURL string  `json:"redirect_url"`
	Created     string  `json:"created"`
	SalaryMin   float64 `json:"salary_min"`
	SalaryMax   float64 `json:"salary_max"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	Contract struct {
		Type string `json:"contract_type"`
	} `json:"contract"`
}

// Fetch calls Adzuna's /jobs/{country}/search/1 endpoint. If no app
// credentials are configured, Fetch returns an empty result rather than an
// error, since Adzuna being unconfigured is a valid deployment choice
// (spec §4.2's "Enabled" toggle governs this, but credentials may lag it).
func (a *AdzunaAdapter) Fetch(ctx context.Context, keyword, location string, maxResults int) ([]models.RawJob, error) {
	if a.appID == "" || a.appKey == "" {
		a.logger.Debug().Msg("adzuna: missing credentials, skipping fetch")
		return nil, nil
	}

	q := url.Values{}
	q.Set("app_id", a.appID)
	q.Set("app_key", a.appKey)
	q.Set("results_per_page", fmt.Sprintf("%d", maxResults))
	q.Set("what", keyword)
	if location != "" {
		q.Set("where", location)
	}

	requestURL := fmt.Sprintf("%s/%s/search/1?%s", a.baseURL, a.country, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("adzuna: build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adzuna: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("adzuna: unexpected status %d", resp.StatusCode)
	}

	var parsed adzunaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("adzuna: decode response: %w", err)
	}

	out := make([]models.RawJob, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if len(out) >= maxResults {
			break
		}

		var posted *time.Time
		if t, err := time.Parse(time.RFC3339, r.Created); err == nil {
			posted = &t
		}

		raw := models.RawJob{
			Title:       r.Title,
			Company:     r.Company.DisplayName,
			Location:    r.Location.DisplayName,
			Description: r.Description,
			ApplyLink:   r.RedirectURL,
			SourceID:    r.ID,
			PostedAt:    posted,
			JobType:     mapAdzunaContractType(r.Contract.Type),
		}
		if r.SalaryMin > 0 {
			raw.SalaryMin = &r.SalaryMin
		}
		if r.SalaryMax > 0 {
			raw.SalaryMax = &r.SalaryMax
		}

		out = append(out, raw)
	}

	a.logger.Debug().Int("count", len(out)).Str("keyword", keyword).Msg("adzuna fetch complete")
	return out, nil
}

func mapAdzunaContractType(raw string) models.JobType {
	switch strings.ToLower(raw) {
	case "permanent":
		return models.JobTypeFullTime
	case "contract":
		return models.JobTypeContract
	default:
		return models.JobTypeUnknown
	}
}
