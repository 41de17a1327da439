package scrape

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/common"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
	"github.com/ternarybob/jobhunter/internal/queue"
	"github.com/ternarybob/jobhunter/internal/services/normalize"
	"github.com/ternarybob/jobhunter/internal/services/sources"
)

type fakeOrchestratorJobStore struct {
	interfaces.JobStorage
	upserted []*models.Job
}

func (f *fakeOrchestratorJobStore) Upsert(ctx context.Context, job *models.Job) (models.UpsertOutcome, error) {
	f.upserted = append(f.upserted, job)
	return models.UpsertInserted, nil
}

type fakeOrchestratorRunStore struct {
	interfaces.ScrapeRunStorage
	nextID  int
	updated *models.ScrapeRun
}

func (f *fakeOrchestratorRunStore) Create(ctx context.Context, run *models.ScrapeRun) error {
	f.nextID++
	run.ID = "run-1"
	return nil
}

func (f *fakeOrchestratorRunStore) Update(ctx context.Context, run *models.ScrapeRun) error {
	f.updated = run
	return nil
}

func TestOrchestrator_Run_FetchesNormalizesAndStoresEachSourceResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jobs": []map[string]any{
				{"id": 1, "title": "Go Engineer", "company_name": "Acme", "candidate_required_location": "Remote"},
				{"id": 2, "title": "Go Engineer", "company_name": "Acme", "candidate_required_location": "Remote"}, // duplicate fingerprint
			},
		})
	}))
	defer srv.Close()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	qm, err := queue.NewManager(db, "scrape_test")
	require.NoError(t, err)

	cfg := &common.SourcesConfig{
		TimeoutSeconds:           5,
		MaxResultsPerSourceCap:   20,
		FetchMaxAttempts:         2,
		FetchRetryInitialDelayMS: 1,
		Remotive:                 common.RemotiveConfig{Enabled: true, BaseURL: srv.URL},
	}
	registry := sources.NewRegistry(cfg, nil, arbor.NewLogger())
	normalizer := normalize.NewNormalizer(arbor.NewLogger())
	jobStore := &fakeOrchestratorJobStore{}
	runStore := &fakeOrchestratorRunStore{}

	o := NewOrchestrator(registry, normalizer, jobStore, runStore, qm, cfg, arbor.NewLogger())

	run, err := o.Run(context.Background(), interfaces.ScrapeOptions{MaxResultsPerSource: 10})

	require.NoError(t, err)
	assert.Equal(t, models.ScrapeRunStatusCompleted, run.Status)
	assert.Equal(t, 2, run.Counts.Found)
	assert.Len(t, jobStore.upserted, 2)
	require.NotNil(t, runStore.updated)
	assert.Equal(t, models.ScrapeRunStatusCompleted, runStore.updated.Status)
}

func TestOrchestrator_Run_CountsErrorsWhenSourceFailsEveryRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	qm, err := queue.NewManager(db, "scrape_test")
	require.NoError(t, err)

	cfg := &common.SourcesConfig{
		TimeoutSeconds:           5,
		MaxResultsPerSourceCap:   20,
		FetchMaxAttempts:         2,
		FetchRetryInitialDelayMS: 1,
		Remotive:                 common.RemotiveConfig{Enabled: true, BaseURL: srv.URL},
	}
	registry := sources.NewRegistry(cfg, nil, arbor.NewLogger())
	normalizer := normalize.NewNormalizer(arbor.NewLogger())
	jobStore := &fakeOrchestratorJobStore{}
	runStore := &fakeOrchestratorRunStore{}

	o := NewOrchestrator(registry, normalizer, jobStore, runStore, qm, cfg, arbor.NewLogger())

	run, err := o.Run(context.Background(), interfaces.ScrapeOptions{MaxResultsPerSource: 10})

	require.NoError(t, err)
	assert.Equal(t, 1, run.Counts.Errored)
	assert.Empty(t, jobStore.upserted)
}
