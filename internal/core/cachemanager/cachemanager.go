// Package cachemanager wraps the Cache Layer with one key-construction
// function per resource kind. Every read path uses it cache-aside: a failed
// or missing lookup is a miss, and write failures are logged and dropped.
package cachemanager

import (
	"context"
	"time"

	cachePort "instafeed/internal/ports/cache"
	postPort "instafeed/internal/ports/post"
	userPort "instafeed/internal/ports/user"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

const (
	feedPrefix    = "feed:"
	postPrefix    = "post:"
	profilePrefix = "profile:"
	trendingKey   = "trending"
)

type TTLs struct {
	Feed     time.Duration
	Post     time.Duration
	Profile  time.Duration
	Trending time.Duration
}

func DefaultTTLs() TTLs {
	return TTLs{
		Feed:     10 * time.Minute,
		Post:     10 * time.Minute,
		Profile:  time.Hour,
		Trending: 30 * time.Minute,
	}
}

func FeedKey(userID string) string    { return feedPrefix + userID }
func PostKey(postID string) string    { return postPrefix + postID }
func ProfileKey(userID string) string { return profilePrefix + userID }
func TrendingKey() string             { return trendingKey }

type Manager struct {
	cache  cachePort.Cache
	ttl    TTLs
	logger *zap.Logger
}

func New(cache cachePort.Cache, ttl TTLs, logger *zap.Logger) *Manager {
	return &Manager{cache: cache, ttl: ttl, logger: logger.Named("cache")}
}

// GetUserFeed returns the cached id window for a user. An empty cached window
// is a hit.
func (m *Manager) GetUserFeed(ctx context.Context, userID string) ([]string, bool) {
	var ids []string
	if !m.get(ctx, FeedKey(userID), &ids) {
		return nil, false
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, true
}

func (m *Manager) SetUserFeed(ctx context.Context, userID string, ids []string) {
	if ids == nil {
		ids = []string{}
	}
	m.set(ctx, FeedKey(userID), ids, m.ttl.Feed)
}

func (m *Manager) InvalidateUserFeed(ctx context.Context, userID string) {
	m.del(ctx, FeedKey(userID))
}

// InvalidateUserFeeds deletes many feed keys in one round trip.
func (m *Manager) InvalidateUserFeeds(ctx context.Context, userIDs []string) {
	if len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = FeedKey(id)
	}
	m.del(ctx, keys...)
}

func (m *Manager) GetPostDetail(ctx context.Context, postID string) (*postPort.PostSummary, bool) {
	var p postPort.PostSummary
	if !m.get(ctx, PostKey(postID), &p) {
		return nil, false
	}
	return &p, true
}

// SetPostDetail stores a viewer-independent copy of p.
func (m *Manager) SetPostDetail(ctx context.Context, p *postPort.PostSummary) {
	blob := *p
	blob.Liked = false
	m.set(ctx, PostKey(p.ID), &blob, m.ttl.Post)
}

func (m *Manager) InvalidatePostDetail(ctx context.Context, postID string) {
	m.del(ctx, PostKey(postID))
}

func (m *Manager) GetUserProfile(ctx context.Context, userID string) (*userPort.ProfileDTO, bool) {
	var p userPort.ProfileDTO
	if !m.get(ctx, ProfileKey(userID), &p) {
		return nil, false
	}
	return &p, true
}

func (m *Manager) SetUserProfile(ctx context.Context, p *userPort.ProfileDTO) {
	m.set(ctx, ProfileKey(p.ID), p, m.ttl.Profile)
}

func (m *Manager) InvalidateUserProfile(ctx context.Context, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = ProfileKey(id)
	}
	m.del(ctx, keys...)
}

func (m *Manager) GetTrending(ctx context.Context) ([]string, bool) {
	var ids []string
	if !m.get(ctx, TrendingKey(), &ids) {
		return nil, false
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, true
}

func (m *Manager) SetTrending(ctx context.Context, ids []string) {
	if ids == nil {
		ids = []string{}
	}
	m.set(ctx, TrendingKey(), ids, m.ttl.Trending)
}

func (m *Manager) get(ctx context.Context, key string, dst any) bool {
	raw, found, err := m.cache.Get(ctx, key)
	if err != nil {
		m.logger.Warn("Cache get failed, treating as miss", zap.String("key", key), zap.Error(err))
		return false
	}
	if !found {
		return false
	}
	if err := sonic.Unmarshal(raw, dst); err != nil {
		m.logger.Warn("Dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		m.del(ctx, key)
		return false
	}
	return true
}

func (m *Manager) set(ctx context.Context, key string, v any, ttl time.Duration) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		m.logger.Error("Cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := m.cache.Set(ctx, key, raw, ttl); err != nil {
		m.logger.Warn("Cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (m *Manager) del(ctx context.Context, keys ...string) {
	if err := m.cache.Delete(ctx, keys...); err != nil {
		m.logger.Warn("Cache delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
