package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
)

// ErrUnsupportedHost is returned by ExtractFromURL when the given URL is not
// a fetchable http(s) address (spec §6's `400 unsupported host`).
var ErrUnsupportedHost = fmt.Errorf("unsupported host")

const urlFetchTimeout = 15 * time.Second

// ExternalAdapter turns user-pasted job text into a structured RawJob via an
// LLMService (spec §4.2's external source, backing `POST /jobs` user
// submissions). Unlike the scheduled adapters it has no scheduled Fetch
// path — Fetch always returns empty, and ExtractFromText is what handlers
// call synchronously on submission.
type ExternalAdapter struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

func NewExternalAdapter(llm interfaces.LLMService, logger arbor.ILogger) *ExternalAdapter {
	return &ExternalAdapter{llm: llm, logger: logger}
}

func (a *ExternalAdapter) Name() models.SourceTag { return models.SourceExternal }

// Fetch is a no-op for the external source: it never participates in the
// scheduled scrape_jobs sweep, only in on-demand user submission.
func (a *ExternalAdapter) Fetch(ctx context.Context, keyword, location string, maxResults int) ([]models.RawJob, error) {
	return nil, nil
}

const extractionSystemPrompt = `You extract structured job posting fields from raw text pasted by a user.
Respond with a single JSON object only, no prose, using exactly these keys:
title, company, location, description, job_type (one of full_time, part_time, contract, internship, or empty), remote_type (one of remote, hybrid, onsite, or empty), experience_level.
If a field cannot be determined, use an empty string.`

type extractedFields struct {
	Title           string `json:"title"`
	Company         string `json:"company"`
	Location        string `json:"location"`
	Description     string `json:"description"`
	JobType         string `json:"job_type"`
	RemoteType      string `json:"remote_type"`
	ExperienceLevel string `json:"experience_level"`
}

// ExtractFromText asks the LLM to pull structured fields out of free-form
// job posting text the user pasted in, returning a RawJob ready for the
// Normaliser. applyLink is attached verbatim since the LLM cannot invent it.
func (a *ExternalAdapter) ExtractFromText(ctx context.Context, rawText, applyLink string) (*models.RawJob, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("job text cannot be empty")
	}

	messages := []interfaces.Message{
		{Role: "system", Content: extractionSystemPrompt},
		{Role: "user", Content: rawText},
	}

	response, err := a.llm.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("external extraction failed: %w", err)
	}

	var fields extractedFields
	if err := json.Unmarshal([]byte(extractJSONObject(response)), &fields); err != nil {
		return nil, fmt.Errorf("external extraction returned unparseable JSON: %w", err)
	}

	if fields.Title == "" {
		return nil, fmt.Errorf("external extraction could not determine a job title")
	}

	raw := &models.RawJob{
		Title:           fields.Title,
		Company:         fields.Company,
		Location:        fields.Location,
		Description:     fields.Description,
		ApplyLink:       applyLink,
		ExperienceLevel: fields.ExperienceLevel,
		JobType:         models.JobType(fields.JobType),
		RemoteType:      models.RemoteType(fields.RemoteType),
	}
	if raw.Description == "" {
		raw.Description = rawText
	}

	return raw, nil
}

// ExtractFromURL fetches the page at rawURL, reduces it to visible text, and
// delegates to ExtractFromText. Only plain http(s) URLs with a non-empty
// host are accepted; anything else fails fast as an unsupported host rather
// than reaching the network.
func (a *ExternalAdapter) ExtractFromURL(ctx context.Context, rawURL string) (*models.RawJob, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, ErrUnsupportedHost
	}

	client := &http.Client{Timeout: urlFetchTimeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, ErrUnsupportedHost
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("failed to fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	text, err := htmlToText(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page content: %w", err)
	}

	return a.ExtractFromText(ctx, text, parsed.String())
}

// htmlToText strips tags, scripts, and styles, returning the page's visible
// text for the LLM extraction prompt.
func htmlToText(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}
	doc.Find("script, style").Remove()
	return strings.TrimSpace(doc.Text()), nil
}

// extractJSONObject trims any LLM chatter surrounding a JSON object by
// slicing from the first '{' to the last '}'.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
