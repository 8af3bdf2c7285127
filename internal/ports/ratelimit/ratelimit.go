package ratelimit

import (
	"context"
	"time"

	"instafeed/internal/core/apperr"
)

type Rule struct {
	Limit  int64
	Window time.Duration
}

type Decision struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Err returns a *apperr.RateLimitError when the request was rejected.
func (d Decision) Err(scope string) error {
	if d.Allowed {
		return nil
	}
	return &apperr.RateLimitError{Scope: scope, Limit: d.Limit, RetryAfter: d.RetryAfter}
}

type Limiter interface {
	Allow(ctx context.Context, scope, identity string) Decision
}
