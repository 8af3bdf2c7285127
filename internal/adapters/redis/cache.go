package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"instafeed/internal/core/apperr"

	"github.com/go-redis/redis/v8"
)

// CacheRedis is the Cache Layer on a plain Redis client. Expiry is enforced
// by Redis.
type CacheRedis struct {
	Client *redis.Client
}

func NewCacheRedis(client *redis.Client) *CacheRedis {
	return &CacheRedis{Client: client}
}

func (c *CacheRedis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("get", err)
	}
	return raw, true, nil
}

func (c *CacheRedis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.Client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable("set", err)
	}
	return nil
}

func (c *CacheRedis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.Client.Del(ctx, keys...).Err(); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("cache %s: %w: %w", op, apperr.ErrCacheUnavailable, err)
}
