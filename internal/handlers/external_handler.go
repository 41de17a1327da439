package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobhunter/internal/apierr"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
	"github.com/ternarybob/jobhunter/internal/services/llm"
	"github.com/ternarybob/jobhunter/internal/services/sources"
)

const minExternalTextLength = 40

// ExternalHandler serves POST /jobs/external/from-url and
// POST /jobs/external/from-text (spec §4.2's external adapter, §6). Both
// routes spend one unit of the caller's per-minute AI-provider budget
// (spec §5) before the adapter ever reaches the LLM.
type ExternalHandler struct {
	adapter    *sources.ExternalAdapter
	normalizer interfaces.Normalizer
	jobs       interfaces.JobStorage
	aiLimiter  *llm.PerUserLimiter
	logger     arbor.ILogger
}

func NewExternalHandler(adapter *sources.ExternalAdapter, normalizer interfaces.Normalizer, jobs interfaces.JobStorage, aiLimiter *llm.PerUserLimiter, logger arbor.ILogger) *ExternalHandler {
	return &ExternalHandler{adapter: adapter, normalizer: normalizer, jobs: jobs, aiLimiter: aiLimiter, logger: logger}
}

type fromURLRequest struct {
	URL string `json:"url"`
}

type fromTextRequest struct {
	Text      string `json:"text"`
	SourceURL string `json:"source_url"`
}

// FromURL handles POST /jobs/external/from-url.
func (h *ExternalHandler) FromURL(w http.ResponseWriter, r *http.Request) {
	if h.adapter == nil {
		WriteError(w, RequestID(r), apierr.Validation("the external job adapter is not configured"))
		return
	}

	var req fromURLRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, RequestID(r), err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		WriteError(w, RequestID(r), apierr.Validation("url is required"))
		return
	}
	if !h.aiLimiter.Allow(UserID(r)) {
		WriteError(w, RequestID(r), apierr.RateLimited("AI extraction rate limit exceeded, try again next minute"))
		return
	}

	raw, err := h.adapter.ExtractFromURL(r.Context(), req.URL)
	if err != nil {
		if err == sources.ErrUnsupportedHost {
			WriteError(w, RequestID(r), apierr.Validation("unsupported host"))
			return
		}
		WriteError(w, RequestID(r), apierr.Internal(err))
		return
	}

	h.createJob(w, r, raw)
}

// FromText handles POST /jobs/external/from-text.
func (h *ExternalHandler) FromText(w http.ResponseWriter, r *http.Request) {
	if h.adapter == nil {
		WriteError(w, RequestID(r), apierr.Validation("the external job adapter is not configured"))
		return
	}

	var req fromTextRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, RequestID(r), err)
		return
	}
	if len(strings.TrimSpace(req.Text)) < minExternalTextLength {
		WriteError(w, RequestID(r), apierr.Validation("text is too short to extract a job posting from"))
		return
	}
	if !h.aiLimiter.Allow(UserID(r)) {
		WriteError(w, RequestID(r), apierr.RateLimited("AI extraction rate limit exceeded, try again next minute"))
		return
	}

	raw, err := h.adapter.ExtractFromText(r.Context(), req.Text, req.SourceURL)
	if err != nil {
		WriteError(w, RequestID(r), apierr.Internal(err))
		return
	}

	h.createJob(w, r, raw)
}

func (h *ExternalHandler) createJob(w http.ResponseWriter, r *http.Request, raw *models.RawJob) {
	job, err := h.normalizer.Normalize(*raw, models.SourceExternal)
	if err != nil {
		WriteError(w, RequestID(r), apierr.Validation(err.Error()))
		return
	}
	job.CreatedByUserID = UserID(r)

	if _, err := h.jobs.Upsert(r.Context(), job); err != nil {
		WriteError(w, RequestID(r), apierr.Internal(err))
		return
	}
	WriteJSON(w, http.StatusOK, job)
}
