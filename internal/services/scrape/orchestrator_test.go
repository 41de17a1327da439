package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/models"
)

type flakyAdapter struct {
	name        models.SourceTag
	failCount   int
	calls       int
	permanently bool
}

func (f *flakyAdapter) Name() models.SourceTag { return f.name }

func (f *flakyAdapter) Fetch(ctx context.Context, keyword, location string, maxResults int) ([]models.RawJob, error) {
	f.calls++
	if f.permanently || f.calls <= f.failCount {
		return nil, errors.New("upstream timeout")
	}
	return []models.RawJob{{Title: "Engineer"}}, nil
}

func TestFetchWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	adapter := &flakyAdapter{name: "remotive", failCount: 2}

	jobs, err := fetchWithRetry(context.Background(), adapter, "go", "remote", 10, 3, time.Millisecond, arbor.NewLogger())

	require.NoError(t, err)
	assert.Len(t, jobs, 1)
	assert.Equal(t, 3, adapter.calls)
}

func TestFetchWithRetry_ExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	adapter := &flakyAdapter{name: "remotive", permanently: true}

	_, err := fetchWithRetry(context.Background(), adapter, "go", "remote", 10, 3, time.Millisecond, arbor.NewLogger())

	require.Error(t, err)
	assert.Equal(t, 3, adapter.calls)
}

func TestFetchWithRetry_StopsOnContextCancellation(t *testing.T) {
	adapter := &flakyAdapter{name: "remotive", permanently: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetchWithRetry(ctx, adapter, "go", "remote", 10, 5, 10*time.Millisecond, arbor.NewLogger())

	require.Error(t, err)
}
