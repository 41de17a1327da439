package recommend

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

type fakeProfileProvider struct {
	profiles map[string]*interfaces.CandidateProfile
	err      error
}

func (f *fakeProfileProvider) Get(ctx context.Context, userID string) (*interfaces.CandidateProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profiles[userID], nil
}

type fakeJobLister struct {
	interfaces.JobStorage
	jobs []models.Job
}

func (f *fakeJobLister) List(ctx context.Context, filters models.JobFilters, page models.Pagination) (*models.Page[models.Job], error) {
	return &models.Page[models.Job]{Items: f.jobs, Page: page.Page, PageSize: page.PageSize, TotalCount: len(f.jobs)}, nil
}

type fakeRecStorage struct {
	interfaces.RecommendationStorage
	userIDs     []string
	replaced    map[string][]models.Recommendation
	replaceErrs map[string]error
}

func (f *fakeRecStorage) DistinctUserIDs(ctx context.Context) ([]string, error) {
	return f.userIDs, nil
}

func (f *fakeRecStorage) ReplaceForUser(ctx context.Context, userID string, recs []models.Recommendation) error {
	if err, ok := f.replaceErrs[userID]; ok {
		return err
	}
	if f.replaced == nil {
		f.replaced = make(map[string][]models.Recommendation)
	}
	f.replaced[userID] = recs
	return nil
}

type fakeMatcher struct {
	recs []models.Recommendation
	err  error
}

func (f *fakeMatcher) Match(ctx context.Context, candidate *interfaces.CandidateProfile, jobs []models.Job, topN int) ([]models.Recommendation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.recs, nil
}

func testRecommendConfig() *common.RecommendConfig {
	return &common.RecommendConfig{TopN: 50, ExpiryDays: 3, WindowDays: 7, MaxConcurrentUsers: 4}
}

func TestRegenerateForUser_SkipsUserWithNoUsableProfile(t *testing.T) {
	profiles := &fakeProfileProvider{profiles: map[string]*interfaces.CandidateProfile{}}
	jobs := &fakeJobLister{}
	recs := &fakeRecStorage{}
	matcher := &fakeMatcher{}
	e := NewEngine(profiles, jobs, recs, matcher, testRecommendConfig(), arbor.NewLogger())

	err := e.RegenerateForUser(context.Background(), "u1")

	require.NoError(t, err)
	assert.Nil(t, recs.replaced["u1"], "a user with no profile must never reach ReplaceForUser")
}

func TestRegenerateForUser_StampsExpiryAndReplacesRecommendations(t *testing.T) {
	profiles := &fakeProfileProvider{profiles: map[string]*interfaces.CandidateProfile{
		"u1": {Profile: &models.UserProfile{UserID: "u1"}, SourceText: "go engineer"},
	}}
	jobs := &fakeJobLister{jobs: []models.Job{{ID: "j1"}, {ID: "j2"}}}
	recs := &fakeRecStorage{}
	matcher := &fakeMatcher{recs: []models.Recommendation{{JobID: "j1", MatchScore: 0.9}}}
	e := NewEngine(profiles, jobs, recs, matcher, testRecommendConfig(), arbor.NewLogger())

	err := e.RegenerateForUser(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, recs.replaced["u1"], 1)
	assert.False(t, recs.replaced["u1"][0].CreatedAt.IsZero())
	assert.True(t, recs.replaced["u1"][0].ExpiresAt.After(recs.replaced["u1"][0].CreatedAt), "expiry must be stamped after the created-at timestamp")
}

func TestRegenerateForUser_PropagatesMatcherFailure(t *testing.T) {
	profiles := &fakeProfileProvider{profiles: map[string]*interfaces.CandidateProfile{
		"u1": {Profile: &models.UserProfile{UserID: "u1"}, SourceText: "x"},
	}}
	jobs := &fakeJobLister{}
	recs := &fakeRecStorage{}
	matcher := &fakeMatcher{err: errors.New("embedding provider unavailable")}
	e := NewEngine(profiles, jobs, recs, matcher, testRecommendConfig(), arbor.NewLogger())

	err := e.RegenerateForUser(context.Background(), "u1")

	assert.Error(t, err)
}

func TestRegenerateAll_ContinuesBatchAfterOneUserFails(t *testing.T) {
	profiles := &fakeProfileProvider{profiles: map[string]*interfaces.CandidateProfile{
		"good": {Profile: &models.UserProfile{UserID: "good"}, SourceText: "x"},
		"bad":  {Profile: &models.UserProfile{UserID: "bad"}, SourceText: "x"},
	}}
	jobs := &fakeJobLister{jobs: []models.Job{{ID: "j1"}}}
	recs := &fakeRecStorage{
		userIDs:     []string{"good", "bad"},
		replaceErrs: map[string]error{"bad": errors.New("storage write failed")},
	}
	matcher := &fakeMatcher{recs: []models.Recommendation{{JobID: "j1", MatchScore: 0.5}}}
	e := NewEngine(profiles, jobs, recs, matcher, testRecommendConfig(), arbor.NewLogger())

	err := e.RegenerateAll(context.Background())

	require.NoError(t, err, "a single user's failure must not abort the whole batch")
	assert.Len(t, recs.replaced["good"], 1)
	assert.Nil(t, recs.replaced["bad"])
}

func TestRegenerateAll_ReturnsErrorWhenUserListCannotBeLoaded(t *testing.T) {
	profiles := &fakeProfileProvider{}
	jobs := &fakeJobLister{}
	recs := &failingDistinctUserIDsStorage{err: errors.New("db unavailable")}
	matcher := &fakeMatcher{}
	e := NewEngine(profiles, jobs, recs, matcher, testRecommendConfig(), arbor.NewLogger())

	err := e.RegenerateAll(context.Background())

	assert.Error(t, err)
}

type failingDistinctUserIDsStorage struct {
	interfaces.RecommendationStorage
	err error
}

func (f *failingDistinctUserIDsStorage) DistinctUserIDs(ctx context.Context) ([]string, error) {
	return nil, f.err
}
