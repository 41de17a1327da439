package llm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerUserLimiter_AllowsBurstUpToPerMinute(t *testing.T) {
	limiter := NewPerUserLimiter(3)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("user-1"), "call %d should be allowed within the burst", i)
	}
	assert.False(t, limiter.Allow("user-1"), "call beyond the per-minute burst should be denied")
}

func TestPerUserLimiter_TracksUsersIndependently(t *testing.T) {
	limiter := NewPerUserLimiter(1)

	assert.True(t, limiter.Allow("user-a"))
	assert.False(t, limiter.Allow("user-a"))
	assert.True(t, limiter.Allow("user-b"), "a different user's budget must be unaffected by user-a's usage")
}

func TestPerUserLimiter_ConsistentUnderConcurrentCalls(t *testing.T) {
	limiter := NewPerUserLimiter(10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow("user-concurrent") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed, "exactly the per-minute burst should succeed regardless of concurrency")
}

func TestNewPerUserLimiter_NonPositiveDefaultsToTen(t *testing.T) {
	limiter := NewPerUserLimiter(0)

	for i := 0; i < 10; i++ {
		assert.True(t, limiter.Allow("user-1"))
	}
	assert.False(t, limiter.Allow("user-1"))
}
