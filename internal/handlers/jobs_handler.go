package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobhunter/internal/apierr"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
)

// maxQueryLength hard-caps the List search query (spec §4.4).
const maxQueryLength = 100

// JobsHandler serves the read-only Job Store endpoints (spec §4.4, §6).
type JobsHandler struct {
	jobs   interfaces.JobStorage
	logger arbor.ILogger
}

func NewJobsHandler(jobs interfaces.JobStorage, logger arbor.ILogger) *JobsHandler {
	return &JobsHandler{jobs: jobs, logger: logger}
}

// List handles GET /jobs.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := ParsePagination(r)
	if err != nil {
		WriteError(w, RequestID(r), err)
		return
	}

	q := r.URL.Query()
	query := q.Get("query")
	if len(query) > maxQueryLength {
		WriteError(w, RequestID(r), apierr.Validation(fmt.Sprintf("query must be at most %d characters", maxQueryLength)))
		return
	}
	filters := models.JobFilters{
		Query:      query,
		Location:   q.Get("location"),
		Source:     models.SourceTag(q.Get("source")),
		JobType:    models.JobType(q.Get("job_type")),
		RemoteType: models.RemoteType(q.Get("remote_type")),
	}
	if v := q.Get("max_age_days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			WriteError(w, RequestID(r), apierr.Validation("max_age_days must be a non-negative integer"))
			return
		}
		filters.MaxAgeDays = days
	}

	result, err := h.jobs.List(r.Context(), filters, page)
	if err != nil {
		WriteError(w, RequestID(r), err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// Get handles GET /jobs/{id}.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		WriteError(w, RequestID(r), apierr.Validation("job id is required"))
		return
	}
	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		if err == interfaces.ErrNotFound {
			WriteError(w, RequestID(r), apierr.NotFound("job not found"))
			return
		}
		WriteError(w, RequestID(r), err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}
