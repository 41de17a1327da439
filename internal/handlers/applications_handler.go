package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobhunter/internal/apierr"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
)

// ApplicationsHandler serves the SavedJob CRUD endpoints under /applications
// (spec §4.8, §6).
type ApplicationsHandler struct {
	saved        interfaces.SavedJobStorage
	jobs         interfaces.JobStorage
	savedMaxLive int
	savedExpiry  int // days
	logger       arbor.ILogger
}

func NewApplicationsHandler(saved interfaces.SavedJobStorage, jobs interfaces.JobStorage, savedMaxLive, savedExpiryDays int, logger arbor.ILogger) *ApplicationsHandler {
	return &ApplicationsHandler{saved: saved, jobs: jobs, savedMaxLive: savedMaxLive, savedExpiry: savedExpiryDays, logger: logger}
}

// Save handles POST /applications/save-job/{id}.
func (h *ApplicationsHandler) Save(w http.ResponseWriter, r *http.Request, jobID string) {
	userID := UserID(r)
	if jobID == "" {
		WriteError(w, RequestID(r), apierr.Validation("job id is required"))
		return
	}

	if _, err := h.jobs.Get(r.Context(), jobID); err != nil {
		if err == interfaces.ErrNotFound {
			WriteError(w, RequestID(r), apierr.NotFound("job not found"))
			return
		}
		WriteError(w, RequestID(r), err)
		return
	}

	live, err := h.saved.ListForUser(r.Context(), userID, models.SavedJobStatusSaved, models.Pagination{Page: 1, PageSize: 1})
	if err != nil {
		WriteError(w, RequestID(r), err)
		return
	}
	if live.TotalCount >= h.savedMaxLive {
		WriteError(w, RequestID(r), apierr.LimitReached(fmt.Sprintf("maximum of %d live saved jobs reached", h.savedMaxLive)))
		return
	}

	now := time.Now().UTC()
	expiresAt := now.AddDate(0, 0, h.savedExpiry)
	saved := &models.SavedJob{
		UserID:    userID,
		JobID:     jobID,
		Status:    models.SavedJobStatusSaved,
		SavedAt:   now,
		ExpiresAt: &expiresAt,
		UpdatedAt: now,
	}

	if err := h.saved.Save(r.Context(), saved); err != nil {
		WriteError(w, RequestID(r), err)
		return
	}
	WriteJSON(w, http.StatusOK, saved)
}

// Unsave handles DELETE /applications/unsave-job/{id}.
func (h *ApplicationsHandler) Unsave(w http.ResponseWriter, r *http.Request, jobID string) {
	userID := UserID(r)
	if jobID == "" {
		WriteError(w, RequestID(r), apierr.Validation("job id is required"))
		return
	}

	if _, err := h.saved.Get(r.Context(), userID, jobID); err != nil {
		if err == interfaces.ErrNotFound {
			WriteError(w, RequestID(r), apierr.NotFound("saved job not found"))
			return
		}
		WriteError(w, RequestID(r), err)
		return
	}

	if err := h.saved.Delete(r.Context(), userID, jobID); err != nil {
		WriteError(w, RequestID(r), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /applications/saved-jobs.
func (h *ApplicationsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r)
	page, err := ParsePagination(r)
	if err != nil {
		WriteError(w, RequestID(r), err)
		return
	}
	status := models.SavedJobStatus(r.URL.Query().Get("status"))

	result, err := h.saved.ListForUser(r.Context(), userID, status, page)
	if err != nil {
		WriteError(w, RequestID(r), err)
		return
	}
	WriteJSON(w, http.StatusOK, result.Items)
}
