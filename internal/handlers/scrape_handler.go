package handlers

import (
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobhunter/internal/apierr"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
)

// ScrapeHandler serves POST /jobs/scrape and GET /jobs/scraping/{id}
// (spec §4.2, §4.9, §6).
type ScrapeHandler struct {
	orchestrator  interfaces.ScrapeOrchestrator
	runs          interfaces.ScrapeRunStorage
	maxResultsCap int
	logger        arbor.ILogger
}

func NewScrapeHandler(orchestrator interfaces.ScrapeOrchestrator, runs interfaces.ScrapeRunStorage, maxResultsCap int, logger arbor.ILogger) *ScrapeHandler {
	return &ScrapeHandler{orchestrator: orchestrator, runs: runs, maxResultsCap: maxResultsCap, logger: logger}
}

type scrapeRequest struct {
	Sources  []string `json:"sources" validate:"omitempty,dive,oneof=remotive remoteok adzuna"`
	Keywords []string `json:"keywords" validate:"omitempty,dive,required"`
	Location string   `json:"location"`
	// MaxResultsPerSource is a pointer so an absent field can default to 20
	// while an explicit 0 still reaches the range check below and is
	// rejected, matching the literal boundary test at 0 and 101.
	MaxResultsPerSource *int `json:"max_results_per_source" validate:"omitempty,gte=0"`
}

// Trigger handles POST /jobs/scrape.
func (h *ScrapeHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		WriteError(w, RequestID(r), err)
		return
	}

	maxResults := 20
	if req.MaxResultsPerSource != nil {
		maxResults = *req.MaxResultsPerSource
	}
	if maxResults < 1 || maxResults > h.maxResultsCap {
		WriteError(w, RequestID(r), apierr.Validation(fmt.Sprintf("max_results_per_source must be between 1 and %d", h.maxResultsCap)))
		return
	}

	sources := make([]models.SourceTag, 0, len(req.Sources))
	for _, s := range req.Sources {
		sources = append(sources, models.SourceTag(s))
	}

	run, err := h.orchestrator.Run(r.Context(), interfaces.ScrapeOptions{
		Sources:             sources,
		Keywords:            req.Keywords,
		Location:            req.Location,
		MaxResultsPerSource: maxResults,
	})
	if err != nil {
		WriteError(w, RequestID(r), err)
		return
	}
	WriteJSON(w, http.StatusOK, run)
}

// GetRun handles GET /jobs/scraping/{id}.
func (h *ScrapeHandler) GetRun(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		WriteError(w, RequestID(r), apierr.Validation("scrape run id is required"))
		return
	}
	run, err := h.runs.Get(r.Context(), id)
	if err != nil {
		if err == interfaces.ErrNotFound {
			WriteError(w, RequestID(r), apierr.NotFound("scrape run not found"))
			return
		}
		WriteError(w, RequestID(r), err)
		return
	}
	WriteJSON(w, http.StatusOK, run)
}
