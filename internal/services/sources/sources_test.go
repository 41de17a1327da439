package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/interfaces"
)

func TestRemotiveAdapter_FetchParsesAndBoundsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jobs": []map[string]any{
				{"id": 1, "title": "Go Engineer", "company_name": "Acme", "candidate_required_location": "Remote", "job_type": "full_time", "publication_date": "2026-01-01T00:00:00"},
				{"id": 2, "title": "Python Engineer", "company_name": "Acme", "candidate_required_location": "Remote", "job_type": "contract", "publication_date": "2026-01-02T00:00:00"},
			},
		})
	}))
	defer srv.Close()

	a := NewRemotiveAdapter(srv.URL, 5, arbor.NewLogger())
	jobs, err := a.Fetch(context.Background(), "engineer", "", 1)

	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Go Engineer", jobs[0].Title)
	assert.Equal(t, "1", jobs[0].SourceID)
}

func TestRemotiveAdapter_FetchPropagatesNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewRemotiveAdapter(srv.URL, 5, arbor.NewLogger())
	_, err := a.Fetch(context.Background(), "engineer", "", 10)

	assert.Error(t, err)
}

func TestRemoteOKAdapter_SkipsLegendRecordAndFiltersByKeywordAndLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"legend": "this is not a job"},
			{"id": "1", "position": "Go Engineer", "company": "Acme", "location": "Berlin", "date": "2026-01-01T00:00:00Z"},
			{"id": "2", "position": "Go Engineer", "company": "Acme", "location": "Remote", "date": "2026-01-01T00:00:00Z"},
			{"id": "3", "position": "Designer", "company": "Acme", "location": "Remote", "date": "2026-01-01T00:00:00Z"},
		})
	}))
	defer srv.Close()

	a := NewRemoteOKAdapter(srv.URL, 5, arbor.NewLogger())
	jobs, err := a.Fetch(context.Background(), "go", "remote", 10)

	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "2", jobs[0].SourceID)
}

func TestRemoteOKAdapter_ParsesSalaryFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"legend": true},
			{"id": "1", "position": "Engineer", "company": "Acme", "salary_min": "90000", "salary_max": "120000"},
		})
	}))
	defer srv.Close()

	a := NewRemoteOKAdapter(srv.URL, 5, arbor.NewLogger())
	jobs, err := a.Fetch(context.Background(), "", "", 10)

	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.NotNil(t, jobs[0].SalaryMin)
	assert.Equal(t, 90000.0, *jobs[0].SalaryMin)
	require.NotNil(t, jobs[0].SalaryMax)
	assert.Equal(t, 120000.0, *jobs[0].SalaryMax)
}

func TestAdzunaAdapter_FetchReturnsEmptyWhenCredentialsMissing(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewAdzunaAdapter(srv.URL, "", "", "us", 5, arbor.NewLogger())
	jobs, err := a.Fetch(context.Background(), "engineer", "", 10)

	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.Equal(t, 0, calls, "an unconfigured adapter must never reach the network")
}

func TestAdzunaAdapter_FetchParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{
					"id":          "1",
					"title":       "Go Engineer",
					"description": "build things",
					"redirect_url": "https://example.com/1",
					"created":     "2026-01-01T00:00:00Z",
					"salary_min":  80000.0,
					"salary_max":  100000.0,
					"company":     map[string]any{"display_name": "Acme"},
					"location":    map[string]any{"display_name": "Remote"},
					"contract":    map[string]any{"contract_type": "permanent"},
				},
			},
		})
	}))
	defer srv.Close()

	a := NewAdzunaAdapter(srv.URL, "app-id", "app-key", "us", 5, arbor.NewLogger())
	jobs, err := a.Fetch(context.Background(), "engineer", "", 10)

	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Go Engineer", jobs[0].Title)
	assert.Equal(t, "Acme", jobs[0].Company)
	require.NotNil(t, jobs[0].SalaryMin)
	assert.Equal(t, 80000.0, *jobs[0].SalaryMin)
}

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	return f.response, f.err
}
func (f *fakeLLM) HealthCheck(ctx context.Context) error { return nil }
func (f *fakeLLM) GetMode() interfaces.LLMMode           { return interfaces.LLMModeCloud }
func (f *fakeLLM) Close() error                          { return nil }

func TestExternalAdapter_ExtractFromText_RejectsEmptyInput(t *testing.T) {
	a := NewExternalAdapter(&fakeLLM{}, arbor.NewLogger())

	_, err := a.ExtractFromText(context.Background(), "   ", "")

	assert.Error(t, err)
}

func TestExternalAdapter_ExtractFromText_ParsesJSONEvenWithSurroundingChatter(t *testing.T) {
	llm := &fakeLLM{response: "Sure, here it is:\n{\"title\": \"Go Engineer\", \"company\": \"Acme\", \"location\": \"Remote\", \"description\": \"build things\"}\nHope that helps!"}
	a := NewExternalAdapter(llm, arbor.NewLogger())

	raw, err := a.ExtractFromText(context.Background(), "some pasted posting", "https://example.com/apply")

	require.NoError(t, err)
	assert.Equal(t, "Go Engineer", raw.Title)
	assert.Equal(t, "Acme", raw.Company)
	assert.Equal(t, "https://example.com/apply", raw.ApplyLink)
}

func TestExternalAdapter_ExtractFromText_FallsBackToRawTextWhenDescriptionMissing(t *testing.T) {
	llm := &fakeLLM{response: `{"title": "Go Engineer"}`}
	a := NewExternalAdapter(llm, arbor.NewLogger())

	raw, err := a.ExtractFromText(context.Background(), "the original pasted text", "")

	require.NoError(t, err)
	assert.Equal(t, "the original pasted text", raw.Description)
}

func TestExternalAdapter_ExtractFromText_RejectsMissingTitle(t *testing.T) {
	llm := &fakeLLM{response: `{"title": ""}`}
	a := NewExternalAdapter(llm, arbor.NewLogger())

	_, err := a.ExtractFromText(context.Background(), "some text", "")

	assert.Error(t, err)
}

func TestExternalAdapter_ExtractFromURL_RejectsUnsupportedHost(t *testing.T) {
	a := NewExternalAdapter(&fakeLLM{}, arbor.NewLogger())

	_, err := a.ExtractFromURL(context.Background(), "not-a-url")

	assert.ErrorIs(t, err, ErrUnsupportedHost)
}

func TestExternalAdapter_Fetch_IsAlwaysANoOp(t *testing.T) {
	a := NewExternalAdapter(&fakeLLM{}, arbor.NewLogger())

	jobs, err := a.Fetch(context.Background(), "anything", "anywhere", 10)

	require.NoError(t, err)
	assert.Nil(t, jobs)
}
