package handlers

import "net/http"

// HealthHandler serves GET /health (spec §6). It deliberately takes no
// dependencies: a health check that reaches into storage or capability
// services can itself become the thing that is down.
type HealthHandler struct {
	version string
}

func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version}
}

func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}
