package matcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/common"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
)

// fakeEmbeddings returns a fixed vector per input text, looked up by exact
// string match, so tests can construct cosine-similarity scenarios directly.
type fakeEmbeddings struct {
	vectors   map[string][]float32
	available bool
}

func (f *fakeEmbeddings) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 0}, nil
}

func (f *fakeEmbeddings) IsAvailable(ctx context.Context) bool { return f.available }

func testMatcherConfig() *common.MatcherConfig {
	return &common.MatcherConfig{MinMatchScore: 0.20, TitleBoostExact: 0.40, TitleBoostPartial: 0.30}
}

func TestMatch_ReturnsNilWhenEmbeddingsUnavailable(t *testing.T) {
	m := NewMatcher(&fakeEmbeddings{available: false}, testMatcherConfig(), arbor.NewLogger())

	recs, err := m.Match(context.Background(), &interfaces.CandidateProfile{Profile: &models.UserProfile{UserID: "u1"}, SourceText: "go engineer"}, []models.Job{{ID: "j1"}}, 10)

	require.NoError(t, err)
	assert.Nil(t, recs)
}

func TestMatch_ReturnsNilWhenCandidateProfileIsNil(t *testing.T) {
	m := NewMatcher(&fakeEmbeddings{available: true}, testMatcherConfig(), arbor.NewLogger())

	recs, err := m.Match(context.Background(), nil, []models.Job{{ID: "j1"}}, 10)

	require.NoError(t, err)
	assert.Nil(t, recs)
}

func TestMatch_FiltersBelowMinMatchScore(t *testing.T) {
	embeddings := &fakeEmbeddings{
		available: true,
		vectors: map[string][]float32{
			"go engineer":     {1, 0},
			"unrelated\njob":  {-1, 0}, // cosine -1 rescales to 0, below the floor
		},
	}
	m := NewMatcher(embeddings, testMatcherConfig(), arbor.NewLogger())

	candidate := &interfaces.CandidateProfile{Profile: &models.UserProfile{UserID: "u1"}, SourceText: "go engineer"}
	jobs := []models.Job{{ID: "j1", CanonicalTitle: "unrelated", Description: "job"}}

	recs, err := m.Match(context.Background(), candidate, jobs, 10)

	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestMatch_AppliesExactTitleBoostAndCapsAtOne(t *testing.T) {
	embeddings := &fakeEmbeddings{
		available: true,
		vectors: map[string][]float32{
			"staff engineer":        {1, 0},
			"staff engineer\nbuild": {1, 0}, // identical vector: cosine 1.0 rescaled to 1.0
		},
	}
	m := NewMatcher(embeddings, testMatcherConfig(), arbor.NewLogger())

	candidate := &interfaces.CandidateProfile{Profile: &models.UserProfile{UserID: "u1", PrimaryTitle: "Staff Engineer"}, SourceText: "staff engineer"}
	jobs := []models.Job{{ID: "j1", CanonicalTitle: "staff engineer", Description: "build"}}

	recs, err := m.Match(context.Background(), candidate, jobs, 10)

	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1.0, recs[0].MatchScore, "score must cap at 1.0 even though cosine(1.0) + title boost would exceed it")
}

func TestMatch_TieBreaksByScrapedAtThenID(t *testing.T) {
	embeddings := &fakeEmbeddings{
		available: true,
		vectors:   map[string][]float32{"x": {1, 0}, "x\n": {1, 0}},
	}
	m := NewMatcher(embeddings, testMatcherConfig(), arbor.NewLogger())

	candidate := &interfaces.CandidateProfile{Profile: &models.UserProfile{UserID: "u1"}, SourceText: "x"}
	jobs := []models.Job{
		{ID: "b", CanonicalTitle: "x", Description: ""},
		{ID: "a", CanonicalTitle: "x", Description: ""},
	}

	recs, err := m.Match(context.Background(), candidate, jobs, 10)

	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].JobID, "equal score and ScrapedAt must tie-break on the lexicographically smaller job id")
}

func TestMatch_RespectsTopN(t *testing.T) {
	embeddings := &fakeEmbeddings{
		available: true,
		vectors:   map[string][]float32{"x": {1, 0}},
	}
	m := NewMatcher(embeddings, testMatcherConfig(), arbor.NewLogger())

	candidate := &interfaces.CandidateProfile{Profile: &models.UserProfile{UserID: "u1"}, SourceText: "x"}
	jobs := []models.Job{
		{ID: "a", CanonicalTitle: "x"},
		{ID: "b", CanonicalTitle: "x"},
		{ID: "c", CanonicalTitle: "x"},
	}

	recs, err := m.Match(context.Background(), candidate, jobs, 2)

	require.NoError(t, err)
	assert.Len(t, recs, 2)
}
