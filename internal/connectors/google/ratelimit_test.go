package google

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestNewTokenLimiter_Defaults(t *testing.T) {
	l := newTokenLimiter(0, 0, time.Now)

	assert.Equal(t, DefaultTokenRate, l.limiter.Limit())
	assert.Equal(t, DefaultTokenBurst, l.limiter.Burst())
	assert.True(t, l.blockedUntil().IsZero())
}

func TestTokenLimiter_Observe(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := func() time.Time { return now }

	tests := []struct {
		name string
		err  error
		want time.Time
	}{
		{"not rate limited", retrieveError(http.StatusBadRequest, "invalid_grant"), time.Time{}},
		{"plain error", errors.New("boom"), time.Time{}},
		{"429 without retry-after", retrieveError(http.StatusTooManyRequests, ""), now.Add(defaultBackoff)},
		{"rate limit error code", retrieveError(http.StatusBadRequest, "rate_limit_exceeded"), now.Add(defaultBackoff)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTokenLimiter(DefaultTokenRate, DefaultTokenBurst, clock)

			l.observe(tt.err)

			assert.Equal(t, tt.want, l.blockedUntil())
		})
	}
}

func TestTokenLimiter_ObserveRetryAfter(t *testing.T) {
	now := time.Now()
	l := newTokenLimiter(DefaultTokenRate, DefaultTokenBurst, func() time.Time { return now })
	rerr := retrieveError(http.StatusTooManyRequests, "")
	rerr.Response.Header.Set("Retry-After", "90")

	l.observe(rerr)
	assert.Equal(t, now.Add(90*time.Second), l.blockedUntil())

	// A shorter backoff never shortens the current one.
	rerr.Response.Header.Set("Retry-After", "1")
	l.observe(rerr)
	assert.Equal(t, now.Add(90*time.Second), l.blockedUntil())
}

func TestTokenLimiter_WaitDuringBackoff(t *testing.T) {
	l := newTokenLimiter(DefaultTokenRate, DefaultTokenBurst, time.Now)
	l.observe(retrieveError(http.StatusTooManyRequests, ""))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.wait(ctx)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.True(t, IsRateLimited(err))
}

func TestTokenLimiter_WaitCanceledDuringBackoff(t *testing.T) {
	l := newTokenLimiter(DefaultTokenRate, DefaultTokenBurst, time.Now)
	l.observe(retrieveError(http.StatusTooManyRequests, ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, l.wait(ctx), context.Canceled)
}

func TestTokenLimiter_WaitBurst(t *testing.T) {
	l := newTokenLimiter(rate.Limit(0.001), 2, time.Now)

	require.NoError(t, l.wait(context.Background()))
	require.NoError(t, l.wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.wait(ctx), "burst is exhausted")
}
