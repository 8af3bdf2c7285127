package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"instafeed/internal/ports/ratelimit"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxLocalLimiters = 10000

// FixedWindowLimiter counts requests per (scope, identity, bucket) in Redis.
// Counts are approximate under races. When Redis cannot be reached it falls
// back to an in-process token bucket with the same average rate.
type FixedWindowLimiter struct {
	Client  *redis.Client
	Rules   map[string]ratelimit.Rule
	Default ratelimit.Rule
	Logger  *zap.Logger

	now   func() time.Time
	mu    sync.Mutex
	local map[string]*rate.Limiter
}

func NewFixedWindowLimiter(client *redis.Client, rules map[string]ratelimit.Rule, def ratelimit.Rule, logger *zap.Logger) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		Client:  client,
		Rules:   rules,
		Default: def,
		Logger:  logger.Named("ratelimit"),
		now:     time.Now,
		local:   make(map[string]*rate.Limiter),
	}
}

// RuleFor returns the rule of scope, or the default rule.
func (l *FixedWindowLimiter) RuleFor(scope string) ratelimit.Rule {
	if r, ok := l.Rules[scope]; ok {
		return r
	}
	return l.Default
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, scope, identity string) ratelimit.Decision {
	rule := l.RuleFor(scope)
	now := l.now()
	window := rule.Window.Nanoseconds()
	bucket := now.UnixNano() / window
	resetAt := time.Unix(0, (bucket+1)*window)
	key := fmt.Sprintf("ratelimit:%s:%s:%d", scope, identity, bucket)

	pipe := l.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rule.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		l.Logger.Warn("Rate limiter store unavailable, using local limiter",
			zap.String("scope", scope), zap.Error(err))
		return l.allowLocal(scope, identity, rule, now)
	}

	count := incr.Val()
	d := ratelimit.Decision{
		Allowed:   count <= rule.Limit,
		Limit:     rule.Limit,
		Remaining: max(rule.Limit-count, 0),
		ResetAt:   resetAt,
	}
	if !d.Allowed {
		d.RetryAfter = resetAt.Sub(now)
	}
	return d
}

func (l *FixedWindowLimiter) allowLocal(scope, identity string, rule ratelimit.Rule, now time.Time) ratelimit.Decision {
	l.mu.Lock()
	key := scope + ":" + identity
	lim, ok := l.local[key]
	if !ok {
		if len(l.local) >= maxLocalLimiters {
			l.local = make(map[string]*rate.Limiter)
		}
		every := rate.Limit(float64(rule.Limit) / rule.Window.Seconds())
		lim = rate.NewLimiter(every, int(rule.Limit))
		l.local[key] = lim
	}
	l.mu.Unlock()

	d := ratelimit.Decision{Limit: rule.Limit, ResetAt: now.Add(rule.Window)}
	if lim.AllowN(now, 1) {
		d.Allowed = true
		d.Remaining = int64(lim.TokensAt(now))
		return d
	}
	r := lim.ReserveN(now, 1)
	d.RetryAfter = r.DelayFrom(now)
	r.CancelAt(now)
	return d
}
