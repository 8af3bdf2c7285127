package followerapp

import (
	"context"
	"errors"
	"testing"
	"time"

	"instafeed/internal/adapters/database"
	redisadapter "instafeed/internal/adapters/redis"
	"instafeed/internal/core/apperr"
	"instafeed/internal/core/cachemanager"
	"instafeed/internal/core/event"
	feedapp "instafeed/internal/core/feed/service"
	"instafeed/internal/core/post"
	"instafeed/internal/core/user"
	"instafeed/internal/testutil"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	svc  *FollowerService
	feed *feedapp.FeedService
	bus  *testutil.Bus
	db   *gorm.DB
}

func setupTest(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	_, client := testutil.NewRedis(t)
	logger := testutil.Logger(t)
	cache := cachemanager.New(redisadapter.NewCacheRedis(client), cachemanager.DefaultTTLs(), logger)
	followerRepo := database.NewFollowerRepositoryDatabase(db)
	feed := feedapp.NewFeedService(followerRepo, database.NewPostRepositoryDatabase(db), database.NewLikeRepositoryDatabase(db), cache, feedapp.DefaultOptions(), logger)
	bus := &testutil.Bus{}
	svc := NewFollowerService(followerRepo, database.NewUserRepositoryDatabase(db), feed, cache, bus, logger)
	return &fixture{svc: svc, feed: feed, bus: bus, db: db}
}

func (f *fixture) user(t *testing.T, handle string) string {
	t.Helper()
	u := &user.User{ID: uuid.Must(uuid.NewV4()), Handle: handle, Email: handle + "@example.com", DisplayName: handle, PasswordHash: "x"}
	require.NoError(t, f.db.Create(u).Error)
	return u.ID.String()
}

func TestFollowerService_FollowRefreshesFollowerFeed(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")
	p := &post.Post{ID: uuid.Must(uuid.NewV4()), AuthorID: uuid.FromStringOrNil(b), CreatedAt: time.Now().UTC()}
	require.NoError(t, f.db.Create(p).Error)

	page, err := f.feed.GetFeed(ctx, a, 10, "")
	require.NoError(t, err)
	require.Empty(t, page.Posts)

	created, err := f.svc.FollowUser(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, created)

	page, err = f.feed.GetFeed(ctx, a, 10, "")
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, p.ID.String(), page.Posts[0].ID)

	created, err = f.svc.FollowUser(ctx, a, b)
	require.NoError(t, err)
	assert.False(t, created, "duplicate follow is a no-op")

	events := f.bus.Events()
	require.Len(t, events, 1)
	assert.Equal(t, event.FollowCreated, events[0].Type)
	assert.Equal(t, a, events[0].ActorID)
	assert.Equal(t, b, events[0].TargetUserID)

	followers, err := f.svc.GetFollowers(ctx, b, 0, 0)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "alice", followers[0].Handle)

	following, err := f.svc.GetFollowing(ctx, a, 0, 0)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "bob", following[0].Handle)

	require.NoError(t, f.svc.UnfollowUser(ctx, a, b))
	require.NoError(t, f.svc.UnfollowUser(ctx, a, b), "unfollow is idempotent")

	page, err = f.feed.GetFeed(ctx, a, 10, "")
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
}

func TestFollowerService_FollowRejections(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	ctx := context.Background()
	a := f.user(t, "alice")

	_, err := f.svc.FollowUser(ctx, a, a)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = f.svc.FollowUser(ctx, a, uuid.Must(uuid.NewV4()).String())
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = f.svc.FollowUser(ctx, a, "not-a-uuid")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	assert.Empty(t, f.bus.Events())
}
