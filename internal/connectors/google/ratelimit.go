package google

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Token endpoint limits. A single user never needs more than a handful of
// exchanges or refreshes in a row.
const (
	DefaultTokenRate  = rate.Limit(1)
	DefaultTokenBurst = 3
	// defaultBackoff applies when a 429 carries no Retry-After.
	defaultBackoff = 30 * time.Second
)

// tokenLimiter throttles token endpoint requests and holds them back after
// Google answers 429.
type tokenLimiter struct {
	limiter *rate.Limiter
	now     func() time.Time

	mu      sync.Mutex
	retryAt time.Time
}

func newTokenLimiter(limit rate.Limit, burst int, now func() time.Time) *tokenLimiter {
	if limit <= 0 {
		limit = DefaultTokenRate
	}
	if burst <= 0 {
		burst = DefaultTokenBurst
	}
	return &tokenLimiter{
		limiter: rate.NewLimiter(limit, burst),
		now:     now,
	}
}

// wait blocks until a token request may be sent. It fails with
// ErrRateLimited right away if ctx ends before the backoff does.
func (l *tokenLimiter) wait(ctx context.Context) error {
	retryAt := l.blockedUntil()
	if delay := retryAt.Sub(l.now()); delay > 0 {
		if deadline, ok := ctx.Deadline(); ok && deadline.Before(retryAt) {
			return fmt.Errorf("%w: retry after %s", ErrRateLimited, retryAt.Format(time.RFC3339))
		}
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return l.limiter.Wait(ctx)
}

// observe records a backoff if err reports rate limiting.
func (l *tokenLimiter) observe(err error) {
	if !IsRateLimited(err) {
		return
	}
	delay := time.Duration(retryAfter(err)) * time.Second
	if delay <= 0 {
		delay = defaultBackoff
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if at := l.now().Add(delay); at.After(l.retryAt) {
		l.retryAt = at
	}
}

// blockedUntil returns the end of the current backoff, or the zero time.
func (l *tokenLimiter) blockedUntil() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.retryAt
}
