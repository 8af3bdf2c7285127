package cache

import (
	"context"
	"time"
)

// Cache is a TTL key-value store. It is advisory: callers treat every error
// as a miss.
type Cache interface {
	// Get reports found=false with a nil error on a plain miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
