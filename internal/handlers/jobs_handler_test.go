package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
)

// fakeJobStorage is an in-memory interfaces.JobStorage used only by handler
// tests, so the HTTP layer can be exercised without a SQLite file.
type fakeJobStorage struct {
	jobs map[string]*models.Job
}

func newFakeJobStorage(jobs ...*models.Job) *fakeJobStorage {
	f := &fakeJobStorage{jobs: make(map[string]*models.Job)}
	for _, j := range jobs {
		f.jobs[j.ID] = j
	}
	return f
}

func (f *fakeJobStorage) Upsert(ctx context.Context, job *models.Job) (models.UpsertOutcome, error) {
	f.jobs[job.ID] = job
	return models.UpsertInserted, nil
}

func (f *fakeJobStorage) Get(ctx context.Context, id string) (*models.Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return job, nil
}

func (f *fakeJobStorage) GetBySourceID(ctx context.Context, source models.SourceTag, sourceID string) (*models.Job, error) {
	return nil, interfaces.ErrNotFound
}

func (f *fakeJobStorage) GetByFingerprint(ctx context.Context, fingerprint string) (*models.Job, error) {
	return nil, interfaces.ErrNotFound
}

func (f *fakeJobStorage) List(ctx context.Context, filters models.JobFilters, page models.Pagination) (*models.Page[models.Job], error) {
	items := make([]models.Job, 0, len(f.jobs))
	for _, j := range f.jobs {
		items = append(items, *j)
	}
	return &models.Page[models.Job]{Items: items, Page: page.Page, PageSize: page.PageSize, TotalCount: len(items)}, nil
}

func (f *fakeJobStorage) Delete(ctx context.Context, id, requester string) error {
	delete(f.jobs, id)
	return nil
}

func (f *fakeJobStorage) DeleteOlderThan(ctx context.Context, maxAgeDays int, excludeJobIDs []string) (int, error) {
	return 0, nil
}

func (f *fakeJobStorage) CountSince(ctx context.Context, source models.SourceTag, since time.Time) (int, error) {
	return 0, nil
}

func testLogger() arbor.ILogger {
	return arbor.NewLogger()
}

func TestJobsHandler_Get_Found(t *testing.T) {
	job := &models.Job{ID: "job-1", Title: "Staff Engineer", ScrapedAt: time.Now()}
	h := NewJobsHandler(newFakeJobStorage(job), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/jobs/job-1", nil)
	rec := httptest.NewRecorder()

	h.Get(rec, req, "job-1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Staff Engineer")
}

func TestJobsHandler_Get_NotFound(t *testing.T) {
	h := NewJobsHandler(newFakeJobStorage(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/jobs/missing", nil)
	rec := httptest.NewRecorder()

	h.Get(rec, req, "missing")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"not_found"`)
}

func TestJobsHandler_Get_EmptyIDIsValidationError(t *testing.T) {
	h := NewJobsHandler(newFakeJobStorage(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/jobs/", nil)
	rec := httptest.NewRecorder()

	h.Get(rec, req, "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobsHandler_List_DefaultsPagination(t *testing.T) {
	job := &models.Job{ID: "job-1", Title: "Engineer", ScrapedAt: time.Now()}
	h := NewJobsHandler(newFakeJobStorage(job), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "job-1")
}

func TestJobsHandler_List_RejectsInvalidMaxAgeDays(t *testing.T) {
	h := NewJobsHandler(newFakeJobStorage(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/jobs?max_age_days=-1", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobsHandler_List_RejectsQueryOver100Chars(t *testing.T) {
	h := NewJobsHandler(newFakeJobStorage(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/jobs?query="+strings.Repeat("a", 101), nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobsHandler_List_AcceptsQueryAt100Chars(t *testing.T) {
	h := NewJobsHandler(newFakeJobStorage(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/jobs?query="+strings.Repeat("a", 100), nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
