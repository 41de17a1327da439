package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures the read API's HTTP surface (spec §6). Routes are
// registered specific-before-wildcard: an exact path like
// "/jobs/recommendations" is matched before the "/jobs/" wildcard that
// would otherwise swallow it, since ServeMux gives the longest registered
// pattern priority only among patterns that actually match — an exact
// match always wins over a trailing-slash wildcard it shares a prefix with.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.app.HealthHandler.Get)

	mux.HandleFunc("/jobs/recommendations", s.handleRecommendationsRoute)
	mux.HandleFunc("/jobs/recommendations/generate", s.handleRecommendationsGenerateRoute)
	mux.HandleFunc("/jobs/scrape", s.handleScrapeRoute)
	mux.HandleFunc("/jobs/scraping/", s.handleScrapingRoutes)
	mux.HandleFunc("/jobs/external/from-url", s.handleExternalFromURLRoute)
	mux.HandleFunc("/jobs/external/from-text", s.handleExternalFromTextRoute)
	mux.HandleFunc("/jobs/", s.handleJobRoutes)
	mux.HandleFunc("/jobs", s.handleJobsCollectionRoute)

	mux.HandleFunc("/applications/save-job/", s.handleSaveJobRoute)
	mux.HandleFunc("/applications/unsave-job/", s.handleUnsaveJobRoute)
	mux.HandleFunc("/applications/saved-jobs", s.handleSavedJobsRoute)

	return mux
}

func (s *Server) handleJobsCollectionRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.app.JobsHandler.List(w, r)
}

// handleJobRoutes handles GET /jobs/{id}. This is registered last among the
// /jobs* wildcards so the more specific literal routes above take the match
// first for any path they cover exactly.
func (s *Server) handleJobRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" {
		s.app.JobsHandler.List(w, r)
		return
	}
	s.app.JobsHandler.Get(w, r, id)
}

func (s *Server) handleRecommendationsRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.app.RecommendationsHandler.List(w, r)
}

func (s *Server) handleRecommendationsGenerateRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.app.RecommendationsHandler.Generate(w, r)
}

func (s *Server) handleScrapeRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.app.ScrapeHandler.Trigger(w, r)
}

func (s *Server) handleScrapingRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/jobs/scraping/")
	s.app.ScrapeHandler.GetRun(w, r, id)
}

func (s *Server) handleExternalFromURLRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.app.ExternalHandler.FromURL(w, r)
}

func (s *Server) handleExternalFromTextRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.app.ExternalHandler.FromText(w, r)
}

func (s *Server) handleSaveJobRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/applications/save-job/")
	s.app.ApplicationsHandler.Save(w, r, id)
}

func (s *Server) handleUnsaveJobRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/applications/unsave-job/")
	s.app.ApplicationsHandler.Unsave(w, r, id)
}

func (s *Server) handleSavedJobsRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.app.ApplicationsHandler.List(w, r)
}
