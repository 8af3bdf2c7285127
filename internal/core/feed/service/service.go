package feedapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"instafeed/internal/core/apperr"
	"instafeed/internal/core/cachemanager"
	feedEntity "instafeed/internal/core/feed"
	feedPort "instafeed/internal/ports/feed"
	followerPort "instafeed/internal/ports/follower"
	postPort "instafeed/internal/ports/post"

	"github.com/gofrs/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

type Options struct {
	Window          int           // ids kept per cached feed
	DefaultLimit    int           // page size when the caller passes none
	Timeout         time.Duration // deadline for the store work of one request
	TrendingWindow  time.Duration
	TrendingLimit   int
	InvalidateBatch int // feed keys deleted per round trip
}

func DefaultOptions() Options {
	return Options{
		Window:          100,
		DefaultLimit:    20,
		Timeout:         3 * time.Second,
		TrendingWindow:  24 * time.Hour,
		TrendingLimit:   50,
		InvalidateBatch: 500,
	}
}

// FeedService materializes feeds cache-aside and drops them when the posts
// they were built from change.
type FeedService struct {
	FollowerRepository followerPort.FollowerRepository
	PostRepository     postPort.PostRepository
	LikeRepository     postPort.LikeRepository
	Cache              *cachemanager.Manager
	Options            Options
	Logger             *zap.Logger

	now func() time.Time
}

func NewFeedService(
	followerRepo followerPort.FollowerRepository,
	postRepo postPort.PostRepository,
	likeRepo postPort.LikeRepository,
	cache *cachemanager.Manager,
	opts Options,
	logger *zap.Logger,
) *FeedService {
	return &FeedService{
		FollowerRepository: followerRepo,
		PostRepository:     postRepo,
		LikeRepository:     likeRepo,
		Cache:              cache,
		Options:            opts,
		Logger:             logger.Named("feed"),
		now:                time.Now,
	}
}

// GetFeed returns one page of the user's feed: posts of followed authors and
// the user's own, newest first. The id window is cached; summaries are always
// read from the store so counters are never stale.
func (s *FeedService) GetFeed(ctx context.Context, userID string, limit int, cursor string) (*feedPort.FeedPage, error) {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return nil, err
	}
	offset, err := feedEntity.DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	limit = s.pageSize(limit)

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	ids, err := s.feedWindow(ctx, uid)
	if err != nil {
		return nil, s.deadline(ctx, "get feed", err)
	}

	page := &feedPort.FeedPage{Posts: []*postPort.PostSummary{}}
	if offset >= len(ids) {
		return page, nil
	}
	end := min(offset+limit, len(ids))
	page.Posts, err = s.materialize(ctx, uid, ids[offset:end])
	if err != nil {
		return nil, s.deadline(ctx, "get feed", err)
	}
	if end < len(ids) {
		page.NextCursor = feedEntity.EncodeCursor(end)
	}
	return page, nil
}

func (s *FeedService) feedWindow(ctx context.Context, uid uuid.UUID) ([]uuid.UUID, error) {
	if cached, ok := s.Cache.GetUserFeed(ctx, uid.String()); ok {
		if ids, ok := parseIDs(cached); ok {
			return ids, nil
		}
		s.Logger.Warn("Cached feed holds invalid ids, rebuilding", zap.String("userID", uid.String()))
	}
	return s.buildWindow(ctx, uid)
}

// WarmFeed rebuilds the user's id window from the store and caches it, so
// the next GetFeed is a hit.
func (s *FeedService) WarmFeed(ctx context.Context, userID string) error {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return err
	}
	ids, err := s.buildWindow(ctx, uid)
	if err != nil {
		return fmt.Errorf("warm feed of %s: %w", userID, err)
	}
	s.Logger.Debug("Feed warmed", zap.String("userID", userID), zap.Int("posts", len(ids)))
	return nil
}

func (s *FeedService) buildWindow(ctx context.Context, uid uuid.UUID) ([]uuid.UUID, error) {
	following, err := s.FollowerRepository.FollowingIDs(ctx, uid)
	if err != nil {
		return nil, err
	}
	authors := append(following, uid)
	ids, err := s.PostRepository.FeedPostIDs(ctx, authors, s.Options.Window)
	if err != nil {
		return nil, err
	}
	s.Cache.SetUserFeed(ctx, uid.String(), idStrings(ids))
	return ids, nil
}

// Explore lists recent public posts from accounts the viewer does not follow.
// It is not cached.
func (s *FeedService) Explore(ctx context.Context, viewerID string, limit int, cursor string) (*feedPort.FeedPage, error) {
	uid, err := parseID("user_id", viewerID)
	if err != nil {
		return nil, err
	}
	offset, err := feedEntity.DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	limit = s.pageSize(limit)

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	following, err := s.FollowerRepository.FollowingIDs(ctx, uid)
	if err != nil {
		return nil, s.deadline(ctx, "explore", err)
	}
	ids, err := s.PostRepository.ExplorePostIDs(ctx, append(following, uid), offset, limit+1)
	if err != nil {
		return nil, s.deadline(ctx, "explore", err)
	}

	page := &feedPort.FeedPage{}
	if len(ids) > limit {
		ids = ids[:limit]
		page.NextCursor = feedEntity.EncodeCursor(offset + limit)
	}
	page.Posts, err = s.materialize(ctx, uid, ids)
	if err != nil {
		return nil, s.deadline(ctx, "explore", err)
	}
	return page, nil
}

// GetTrending serves the cached trending snapshot, recomputing it on a miss.
func (s *FeedService) GetTrending(ctx context.Context, viewerID string, limit int) ([]*postPort.PostSummary, error) {
	var viewer uuid.UUID
	if viewerID != "" {
		var err error
		if viewer, err = parseID("user_id", viewerID); err != nil {
			return nil, err
		}
	}
	if limit <= 0 || limit > s.Options.TrendingLimit {
		limit = s.Options.TrendingLimit
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	var ids []uuid.UUID
	cached, ok := s.Cache.GetTrending(ctx)
	if ok {
		ids, ok = parseIDs(cached)
	}
	if !ok {
		fresh, err := s.RefreshTrending(ctx)
		if err != nil {
			return nil, s.deadline(ctx, "get trending", err)
		}
		ids, _ = parseIDs(fresh)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	posts, err := s.materialize(ctx, viewer, ids)
	if err != nil {
		return nil, s.deadline(ctx, "get trending", err)
	}
	return posts, nil
}

// RefreshTrending recomputes the trending snapshot and writes it to the cache.
func (s *FeedService) RefreshTrending(ctx context.Context) ([]string, error) {
	since := s.now().Add(-s.Options.TrendingWindow)
	ids, err := s.PostRepository.TrendingPostIDs(ctx, since, s.Options.TrendingLimit)
	if err != nil {
		return nil, err
	}
	out := idStrings(ids)
	s.Cache.SetTrending(ctx, out)
	return out, nil
}

// InvalidateFollowers deletes the cached feed of the author and of every
// follower. Deletes are batched and run concurrently.
func (s *FeedService) InvalidateFollowers(ctx context.Context, authorID string) error {
	uid, err := parseID("author_id", authorID)
	if err != nil {
		return err
	}
	followers, err := s.FollowerRepository.FollowerIDs(ctx, uid)
	if err != nil {
		return fmt.Errorf("invalidate followers of %s: %w", authorID, err)
	}
	keys := append(idStrings(followers), authorID)

	batch := max(s.Options.InvalidateBatch, 1)
	p := pool.New().WithMaxGoroutines(4)
	for i := 0; i < len(keys); i += batch {
		chunk := keys[i:min(i+batch, len(keys))]
		p.Go(func() { s.Cache.InvalidateUserFeeds(ctx, chunk) })
	}
	p.Wait()

	s.Logger.Debug("Invalidated follower feeds", zap.String("authorID", authorID), zap.Int("count", len(keys)))
	return nil
}

func (s *FeedService) InvalidateUser(ctx context.Context, userID string) {
	s.Cache.InvalidateUserFeed(ctx, userID)
}

// materialize resolves ids to summaries in the given order. Ids whose post is
// gone or archived since the window was cached are skipped.
func (s *FeedService) materialize(ctx context.Context, viewer uuid.UUID, ids []uuid.UUID) ([]*postPort.PostSummary, error) {
	out := make([]*postPort.PostSummary, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	summaries, err := s.PostRepository.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	liked, err := s.LikeRepository.LikedPostIDs(ctx, viewer, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*postPort.PostSummary, len(summaries))
	for _, p := range summaries {
		byID[p.ID] = p
	}
	for _, id := range ids {
		p, ok := byID[id.String()]
		if !ok || p.IsArchived {
			continue
		}
		p.Liked = liked[id]
		out = append(out, p)
	}
	return out, nil
}

func (s *FeedService) pageSize(limit int) int {
	if limit <= 0 {
		limit = s.Options.DefaultLimit
	}
	return min(limit, s.Options.Window)
}

func (s *FeedService) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Options.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Options.Timeout)
}

// deadline reports an expired request deadline as ErrTimeout whatever error
// the driver surfaced for it.
func (s *FeedService) deadline(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, apperr.ErrTimeout) {
		return fmt.Errorf("%s: %w: %w", op, apperr.ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.FromString(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperr.Invalid(field, "must be a uuid")
	}
	return id, nil
}

func parseIDs(raw []string) ([]uuid.UUID, bool) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.FromString(r)
		if err != nil {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
