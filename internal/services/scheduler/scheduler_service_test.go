package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/common"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
)

type fakeOrchestrator struct{ calls int32 }

func (f *fakeOrchestrator) Run(ctx context.Context, opts interfaces.ScrapeOptions) (*models.ScrapeRun, error) {
	atomic.AddInt32(&f.calls, 1)
	return &models.ScrapeRun{}, nil
}

type fakeRecommender struct{ calls int32 }

func (f *fakeRecommender) RegenerateAll(ctx context.Context) error {
	atomic.AddInt32(&f.calls, 1)
	return nil
}
func (f *fakeRecommender) RegenerateForUser(ctx context.Context, userID string) error { return nil }

type blockingRecommender struct {
	started  chan struct{}
	released chan struct{}
}

func (b *blockingRecommender) RegenerateAll(ctx context.Context) error {
	close(b.started)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.released:
		return nil
	}
}
func (b *blockingRecommender) RegenerateForUser(ctx context.Context, userID string) error { return nil }

type fakeRetention struct{}

func (f *fakeRetention) CleanupExpiredRecommendations(ctx context.Context) (int, error) { return 0, nil }
func (f *fakeRetention) CleanupExpiredSavedJobs(ctx context.Context) (int, error)        { return 0, nil }
func (f *fakeRetention) CleanupOldJobs(ctx context.Context) (int, error)                 { return 0, nil }

func testSchedulerConfig() *common.SchedulerConfig {
	return &common.SchedulerConfig{
		Timezone:                    "UTC",
		ScrapeJobsCron:              "0 0 * * *",
		GenerateRecommendationsCron: "0 1 * * *",
		CleanupOldJobsCron:          "0 2 * * *",
		CleanupExpiredRecsCron:      "0 3 * * *",
		CleanupExpiredSavedCron:     "0 4 * * *",
	}
}

func TestNewService_NextFireReturnsAFutureTimeForEachRegisteredJob(t *testing.T) {
	svc, err := NewService(testSchedulerConfig(), &fakeOrchestrator{}, &fakeRecommender{}, &fakeRetention{}, arbor.NewLogger())
	require.NoError(t, err)

	next, err := svc.NextFire(jobScrapeJobs)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.True(t, next.After(time.Now()))
}

func TestNewService_NextFireUnknownJobReturnsError(t *testing.T) {
	svc, err := NewService(testSchedulerConfig(), &fakeOrchestrator{}, &fakeRecommender{}, &fakeRetention{}, arbor.NewLogger())
	require.NoError(t, err)

	_, err = svc.NextFire("not_a_real_job")
	assert.Error(t, err)
}

func TestTriggerJob_SkipsWhileAlreadyRunning(t *testing.T) {
	blocking := &blockingRecommender{started: make(chan struct{}), released: make(chan struct{})}
	svc, err := NewService(testSchedulerConfig(), &fakeOrchestrator{}, blocking, &fakeRetention{}, arbor.NewLogger())
	require.NoError(t, err)

	require.NoError(t, svc.TriggerJob(jobGenerateRecommendations))
	<-blocking.started

	status, err := svc.GetJobStatus(jobGenerateRecommendations)
	require.NoError(t, err)
	assert.True(t, status.Running)

	require.NoError(t, svc.TriggerJob(jobGenerateRecommendations), "a second trigger is accepted but its executeJob must observe the lock and skip")
	close(blocking.released)
}

func TestStop_CancelsInFlightJobContextInsteadOfWaitingForDeadline(t *testing.T) {
	cfg := testSchedulerConfig()
	blocking := &blockingRecommender{started: make(chan struct{}), released: make(chan struct{})}
	svc, err := NewService(cfg, &fakeOrchestrator{}, blocking, &fakeRetention{}, arbor.NewLogger())
	require.NoError(t, err)
	require.NoError(t, svc.Start())

	require.NoError(t, svc.TriggerJob(jobGenerateRecommendations))
	<-blocking.started

	done := make(chan struct{})
	go func() {
		svc.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return within its grace period")
	}

	// Give executeJob's deferred bookkeeping a moment to record the
	// cancellation-induced failure before asserting on it.
	var status *interfaces.JobStatus
	for i := 0; i < 50; i++ {
		status, err = svc.GetJobStatus(jobGenerateRecommendations)
		require.NoError(t, err)
		if !status.Running {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	assert.False(t, status.Running)
	assert.False(t, status.LastRunOK, "the in-flight job must observe shutdown cancellation, not run to its own deadline")
	assert.Contains(t, status.LastError, "context canceled")
}
