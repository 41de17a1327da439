package llm

import (
	"sync"

	"golang.org/x/time/rate"
)

// PerUserLimiter tracks AI provider usage per user per minute (spec §5):
// "Rate limits to AI providers are tracked per user per minute ... tracking
// must be consistent under concurrent calls." Each user gets its own
// token-bucket limiter, created lazily on first use and guarded by a mutex
// so concurrent requests for the same user see a consistent count.
type PerUserLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	perMinute   int
	burstPerMin int
}

// NewPerUserLimiter builds a limiter allowing perMinute requests per user
// per minute, with a burst equal to the full per-minute allowance so a user
// can spend their whole budget immediately rather than being smoothed to a
// steady trickle.
func NewPerUserLimiter(perMinute int) *PerUserLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &PerUserLimiter{
		limiters:    make(map[string]*rate.Limiter),
		perMinute:   perMinute,
		burstPerMin: perMinute,
	}
}

// Allow reports whether userID may make one more AI provider call this
// minute, consuming a token if so.
func (p *PerUserLimiter) Allow(userID string) bool {
	p.mu.Lock()
	limiter, ok := p.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(p.perMinute))/60.0, p.burstPerMin)
		p.limiters[userID] = limiter
	}
	p.mu.Unlock()

	return limiter.Allow()
}
