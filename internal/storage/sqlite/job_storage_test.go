package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
)

func newTestJobStorage(t *testing.T, retentionDays int) (*JobStorage, *SQLiteDB) {
	t.Helper()
	db := newTestDB(t)
	return NewJobStorage(db, retentionDays, 2, arbor.NewLogger()).(*JobStorage), db
}

func newTestJob(idSuffix string, scrapedAt time.Time) *models.Job {
	return &models.Job{
		Title:          "Staff Engineer",
		Company:        "Acme",
		Location:       "Remote",
		Description:    "build things",
		Source:         models.SourceTag("manual"),
		ScrapedAt:      scrapedAt,
		CanonicalTitle: "staff engineer",
		Fingerprint:    "fp-" + idSuffix,
	}
}

func TestJobStorage_Upsert_InsertsThenRefreshesOnSourceIDMatch(t *testing.T) {
	storage, _ := newTestJobStorage(t, 7)
	ctx := context.Background()

	job := newTestJob("a", time.Now().UTC().Add(-48*time.Hour))
	job.Source = models.SourceTag("remotive")
	job.SourceID = "ext-1"

	outcome, err := storage.Upsert(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, models.UpsertInserted, outcome)
	firstID := job.ID

	resurfaced := newTestJob("a", time.Now().UTC())
	resurfaced.Source = models.SourceTag("remotive")
	resurfaced.SourceID = "ext-1"

	outcome, err = storage.Upsert(ctx, resurfaced)
	require.NoError(t, err)
	assert.Equal(t, models.UpsertRefreshed, outcome)
	assert.Equal(t, firstID, resurfaced.ID, "refresh must keep the original row identity")
}

func TestJobStorage_Delete_RetentionRequesterBlockedWithinFreshnessWindow(t *testing.T) {
	storage, _ := newTestJobStorage(t, 7)
	ctx := context.Background()

	job := newTestJob("fresh", time.Now().UTC().Add(-1*time.Hour))
	_, err := storage.Upsert(ctx, job)
	require.NoError(t, err)

	err = storage.Delete(ctx, job.ID, interfaces.SystemRequester)
	assert.ErrorIs(t, err, interfaces.ErrRetentionWindowActive)
}

func TestJobStorage_Delete_RetentionRequesterBlockedByLiveSavedJob(t *testing.T) {
	storage, db := newTestJobStorage(t, 7)
	savedJobs := NewSavedJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	job := newTestJob("old-referenced", time.Now().UTC().AddDate(0, 0, -30))
	_, err := storage.Upsert(ctx, job)
	require.NoError(t, err)

	require.NoError(t, savedJobs.Save(ctx, &models.SavedJob{UserID: "user-1", JobID: job.ID, Status: models.SavedJobStatusSaved}))

	err = storage.Delete(ctx, job.ID, interfaces.SystemRequester)
	assert.ErrorIs(t, err, interfaces.ErrHasReferences)
}

func TestJobStorage_Delete_RetentionRequesterAllowedWhenStaleAndUnreferenced(t *testing.T) {
	storage, _ := newTestJobStorage(t, 7)
	ctx := context.Background()

	job := newTestJob("old-unreferenced", time.Now().UTC().AddDate(0, 0, -30))
	_, err := storage.Upsert(ctx, job)
	require.NoError(t, err)

	require.NoError(t, storage.Delete(ctx, job.ID, interfaces.SystemRequester))

	_, err = storage.Get(ctx, job.ID)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestJobStorage_Delete_OwnerMayDeleteOwnSubmittedJob(t *testing.T) {
	storage, _ := newTestJobStorage(t, 7)
	ctx := context.Background()

	job := newTestJob("user-submitted", time.Now().UTC())
	job.CreatedByUserID = "user-7"
	_, err := storage.Upsert(ctx, job)
	require.NoError(t, err)

	require.NoError(t, storage.Delete(ctx, job.ID, "user-7"))
}

func TestJobStorage_Upsert_DropsStaleNewJobPastFreshnessWindow(t *testing.T) {
	storage, _ := newTestJobStorage(t, 7)
	ctx := context.Background()

	stalePostedAt := time.Now().UTC().AddDate(0, 0, -10)
	job := newTestJob("stale", time.Now().UTC())
	job.PostedAt = &stalePostedAt

	outcome, err := storage.Upsert(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, models.UpsertDropped, outcome)

	_, err = storage.GetByFingerprint(ctx, job.Fingerprint)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestJobStorage_Upsert_RefreshesExistingRowEvenWhenStale(t *testing.T) {
	storage, _ := newTestJobStorage(t, 7)
	ctx := context.Background()

	job := newTestJob("still-fresh", time.Now().UTC())
	job.Source = models.SourceTag("remotive")
	job.SourceID = "ext-stale"
	_, err := storage.Upsert(ctx, job)
	require.NoError(t, err)

	stalePostedAt := time.Now().UTC().AddDate(0, 0, -10)
	resurfaced := newTestJob("still-fresh", time.Now().UTC())
	resurfaced.Source = models.SourceTag("remotive")
	resurfaced.SourceID = "ext-stale"
	resurfaced.PostedAt = &stalePostedAt

	outcome, err := storage.Upsert(ctx, resurfaced)
	require.NoError(t, err)
	assert.Equal(t, models.UpsertRefreshed, outcome, "an existing row must still be refreshed even if the resurfaced posting is stale")
}

func TestJobStorage_Delete_NonOwnerRejected(t *testing.T) {
	storage, _ := newTestJobStorage(t, 7)
	ctx := context.Background()

	job := newTestJob("user-submitted-2", time.Now().UTC())
	job.CreatedByUserID = "user-7"
	_, err := storage.Upsert(ctx, job)
	require.NoError(t, err)

	err = storage.Delete(ctx, job.ID, "someone-else")
	assert.ErrorIs(t, err, interfaces.ErrNotPermitted)
}
