package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spaces requests to the origin with a token bucket. After the
// origin answers 429 it also holds every request until the Retry-After
// deadline has passed.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a limiter. A non-positive rate disables it.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a request can be made.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return r.limiter.Wait(ctx)
}

// Backoff delays every following request by d. A shorter backoff never
// replaces a longer one already in place.
func (r *RateLimiter) Backoff(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if at := time.Now().Add(d); at.After(r.retryAt) {
		r.retryAt = at
	}
}
