package handlers

import (
	"net/http"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobhunter/internal/apierr"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
)

// RecommendationsHandler serves GET /jobs/recommendations and POST
// /jobs/recommendations/generate (spec §4.7, §4.9, §6).
type RecommendationsHandler struct {
	recs   interfaces.RecommendationStorage
	engine interfaces.RecommendationEngine
	logger arbor.ILogger

	// genMu gives regeneration the same per-user exclusion the scheduler's
	// full-fleet run provides, so two concurrent generate calls for the same
	// user never interleave (spec §5's read-your-writes guarantee).
	genMu   sync.Mutex
	running map[string]bool
}

func NewRecommendationsHandler(recs interfaces.RecommendationStorage, engine interfaces.RecommendationEngine, logger arbor.ILogger) *RecommendationsHandler {
	return &RecommendationsHandler{
		recs:    recs,
		engine:  engine,
		logger:  logger,
		running: make(map[string]bool),
	}
}

// List handles GET /jobs/recommendations.
func (h *RecommendationsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r)
	page, err := ParsePagination(r)
	if err != nil {
		WriteError(w, RequestID(r), err)
		return
	}

	result, err := h.recs.ListForUser(r.Context(), userID, page)
	if err != nil {
		WriteError(w, RequestID(r), err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// Generate handles POST /jobs/recommendations/generate.
func (h *RecommendationsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r)

	h.genMu.Lock()
	if h.running[userID] {
		h.genMu.Unlock()
		WriteError(w, RequestID(r), apierr.Conflict("a recommendation regeneration is already running for this user"))
		return
	}
	h.running[userID] = true
	h.genMu.Unlock()

	defer func() {
		h.genMu.Lock()
		delete(h.running, userID)
		h.genMu.Unlock()
	}()

	if err := h.engine.RegenerateForUser(r.Context(), userID); err != nil {
		WriteError(w, RequestID(r), err)
		return
	}

	page, err := h.recs.ListForUser(r.Context(), userID, models.Pagination{Page: 1, PageSize: 1})
	if err != nil {
		WriteError(w, RequestID(r), err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"count": page.TotalCount})
}
