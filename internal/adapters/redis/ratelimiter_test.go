package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"instafeed/internal/core/apperr"
	"instafeed/internal/ports/ratelimit"
	"instafeed/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLimiter(t *testing.T, now time.Time) (*FixedWindowLimiter, func(time.Duration)) {
	t.Helper()

	mr, client := testutil.NewRedis(t)
	rules := map[string]ratelimit.Rule{"post": {Limit: 2, Window: time.Minute}}
	l := NewFixedWindowLimiter(client, rules, ratelimit.Rule{Limit: 100, Window: time.Minute}, testutil.Logger(t))
	l.now = func() time.Time { return now }
	advance := func(d time.Duration) {
		now = now.Add(d)
		mr.FastForward(d)
	}
	return l, advance
}

func TestFixedWindowLimiter_RejectsThirdPostInWindow(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l, advance := setupLimiter(t, start)
	ctx := context.Background()

	first := l.Allow(ctx, "post", "user-1")
	second := l.Allow(ctx, "post", "user-1")
	third := l.Allow(ctx, "post", "user-1")

	assert.True(t, first.Allowed)
	assert.Equal(t, int64(1), first.Remaining)
	assert.True(t, second.Allowed)
	assert.Equal(t, int64(0), second.Remaining)
	require.False(t, third.Allowed)
	assert.Equal(t, time.Minute, third.RetryAfter)

	err := third.Err("post")
	var rl *apperr.RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, "post", rl.Scope)
	assert.True(t, errors.Is(err, apperr.ErrRateLimited))

	// Another identity has its own counter.
	assert.True(t, l.Allow(ctx, "post", "user-2").Allowed)

	advance(time.Minute)
	assert.True(t, l.Allow(ctx, "post", "user-1").Allowed, "next window starts fresh")
}

func TestFixedWindowLimiter_DefaultRule(t *testing.T) {
	t.Parallel()

	l, _ := setupLimiter(t, time.Date(2024, 5, 1, 12, 0, 30, 0, time.UTC))
	d := l.Allow(context.Background(), "global", "10.0.0.1")

	assert.True(t, d.Allowed)
	assert.Equal(t, int64(100), d.Limit)
	assert.Equal(t, int64(99), d.Remaining)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 1, 0, 0, time.UTC), d.ResetAt.UTC())
}

func TestFixedWindowLimiter_FallsBackToLocalWhenRedisDown(t *testing.T) {
	t.Parallel()

	mr, client := testutil.NewRedis(t)
	rules := map[string]ratelimit.Rule{"post": {Limit: 2, Window: time.Minute}}
	l := NewFixedWindowLimiter(client, rules, ratelimit.Rule{Limit: 100, Window: time.Minute}, testutil.Logger(t))
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	mr.Close()

	ctx := context.Background()
	assert.True(t, l.Allow(ctx, "post", "user-1").Allowed)
	assert.True(t, l.Allow(ctx, "post", "user-1").Allowed)
	third := l.Allow(ctx, "post", "user-1")
	assert.False(t, third.Allowed)
	assert.Greater(t, third.RetryAfter, time.Duration(0))
}
