package retention

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/common"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
)

type fakeRecommendationStorage struct {
	interfaces.RecommendationStorage
	userIDs       []string
	deleteExpired int
	deleteErr     error
}

func (f *fakeRecommendationStorage) DeleteExpired(ctx context.Context) (int, error) {
	return f.deleteExpired, f.deleteErr
}

func (f *fakeRecommendationStorage) DistinctUserIDs(ctx context.Context) ([]string, error) {
	return f.userIDs, nil
}

type fakeSavedJobStorage struct {
	interfaces.SavedJobStorage
	byUser        map[string][]models.SavedJob
	deleteExpired int
	deleteErr     error
}

func (f *fakeSavedJobStorage) DeleteExpired(ctx context.Context) (int, error) {
	return f.deleteExpired, f.deleteErr
}

func (f *fakeSavedJobStorage) ListForUser(ctx context.Context, userID string, status models.SavedJobStatus, page models.Pagination) (*models.Page[models.SavedJob], error) {
	items := f.byUser[userID]
	return &models.Page[models.SavedJob]{Items: items, Page: page.Page, PageSize: page.PageSize, TotalCount: len(items)}, nil
}

type fakeJobStorageForRetention struct {
	interfaces.JobStorage
	deleted       int
	deleteErr     error
	excludeJobIDs []string
}

func (f *fakeJobStorageForRetention) DeleteOlderThan(ctx context.Context, maxAgeDays int, excludeJobIDs []string) (int, error) {
	f.excludeJobIDs = excludeJobIDs
	return f.deleted, f.deleteErr
}

func testRetentionConfig() *common.RetentionConfig {
	return &common.RetentionConfig{JobRetentionDays: 7, SavedExpiryDays: 10, IngestFreshnessDays: 2}
}

func TestCleanupExpiredRecommendations_ReturnsDeletedCount(t *testing.T) {
	recs := &fakeRecommendationStorage{deleteExpired: 4}
	s := NewService(recs, &fakeSavedJobStorage{}, &fakeJobStorageForRetention{}, testRetentionConfig(), arbor.NewLogger())

	n, err := s.CleanupExpiredRecommendations(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestCleanupExpiredRecommendations_PropagatesStorageError(t *testing.T) {
	recs := &fakeRecommendationStorage{deleteErr: errors.New("db locked")}
	s := NewService(recs, &fakeSavedJobStorage{}, &fakeJobStorageForRetention{}, testRetentionConfig(), arbor.NewLogger())

	_, err := s.CleanupExpiredRecommendations(context.Background())

	assert.Error(t, err)
}

func TestCleanupExpiredSavedJobs_ReturnsDeletedCount(t *testing.T) {
	saved := &fakeSavedJobStorage{deleteExpired: 2}
	s := NewService(&fakeRecommendationStorage{}, saved, &fakeJobStorageForRetention{}, testRetentionConfig(), arbor.NewLogger())

	n, err := s.CleanupExpiredSavedJobs(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCleanupOldJobs_ExcludesEveryJobReferencedByALiveSavedJob(t *testing.T) {
	recs := &fakeRecommendationStorage{userIDs: []string{"u1", "u2"}}
	saved := &fakeSavedJobStorage{byUser: map[string][]models.SavedJob{
		"u1": {{JobID: "j1"}, {JobID: "j2"}},
		"u2": {{JobID: "j2"}}, // overlap with u1 must still dedupe to one entry
	}}
	jobs := &fakeJobStorageForRetention{deleted: 3}
	s := NewService(recs, saved, jobs, testRetentionConfig(), arbor.NewLogger())

	deleted, err := s.CleanupOldJobs(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
	assert.ElementsMatch(t, []string{"j1", "j2"}, jobs.excludeJobIDs)
}

func TestCleanupOldJobs_PropagatesReferenceLookupError(t *testing.T) {
	recs := &failingDistinctUserIDsStorageForRetention{err: errors.New("db unavailable")}
	s := NewService(recs, &fakeSavedJobStorage{}, &fakeJobStorageForRetention{}, testRetentionConfig(), arbor.NewLogger())

	_, err := s.CleanupOldJobs(context.Background())

	assert.Error(t, err)
}

func TestCleanupOldJobs_PropagatesDeleteError(t *testing.T) {
	recs := &fakeRecommendationStorage{}
	jobs := &fakeJobStorageForRetention{deleteErr: errors.New("fk violation")}
	s := NewService(recs, &fakeSavedJobStorage{}, jobs, testRetentionConfig(), arbor.NewLogger())

	_, err := s.CleanupOldJobs(context.Background())

	assert.Error(t, err)
}

type failingDistinctUserIDsStorageForRetention struct {
	interfaces.RecommendationStorage
	err error
}

func (f *failingDistinctUserIDsStorageForRetention) DistinctUserIDs(ctx context.Context) ([]string, error) {
	return nil, f.err
}
