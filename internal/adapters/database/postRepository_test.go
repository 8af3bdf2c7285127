package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"instafeed/internal/adapters/database"
	"instafeed/internal/core/apperr"
	"instafeed/internal/core/post"
	"instafeed/internal/testutil"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_TrendingRanksByWeightedScore(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	repo := database.NewPostRepositoryDatabase(db)
	author := seedUser(t, db, "bob", false)

	p1 := seedPost(t, db, author, base.Add(-2*time.Hour), 10, 0)
	p2 := seedPost(t, db, author, base.Add(-3*time.Hour), 3, 4)
	tie := seedPost(t, db, author, base.Add(-1*time.Hour), 10, 0)
	seedPost(t, db, author, base.Add(-48*time.Hour), 500, 500)

	ids, err := repo.TrendingPostIDs(context.Background(), base.Add(-24*time.Hour), 50)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p2.ID, tie.ID, p1.ID}, ids)
}

func TestPostRepository_FeedPostIDs(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	repo := database.NewPostRepositoryDatabase(db)
	a := seedUser(t, db, "alice", false)
	b := seedUser(t, db, "bob", false)
	c := seedUser(t, db, "carol", false)

	older := seedPost(t, db, b, base, 0, 0)
	newer := seedPost(t, db, a, base.Add(time.Second), 0, 0)
	archived := seedPost(t, db, b, base.Add(2*time.Second), 0, 0)
	require.NoError(t, repo.SetArchived(context.Background(), archived.ID, true))
	seedPost(t, db, c, base.Add(3*time.Second), 0, 0)

	ids, err := repo.FeedPostIDs(context.Background(), []uuid.UUID{a.ID, b.ID}, 100)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{newer.ID, older.ID}, ids)

	ids, err = repo.FeedPostIDs(context.Background(), []uuid.UUID{a.ID, b.ID}, 1)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{newer.ID}, ids)

	ids, err = repo.FeedPostIDs(context.Background(), nil, 100)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPostRepository_ExploreSkipsPrivateAndExcluded(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	repo := database.NewPostRepositoryDatabase(db)
	viewer := seedUser(t, db, "viewer", false)
	followed := seedUser(t, db, "followed", false)
	private := seedUser(t, db, "private", true)
	stranger := seedUser(t, db, "stranger", false)

	seedPost(t, db, viewer, base, 0, 0)
	seedPost(t, db, followed, base.Add(time.Second), 0, 0)
	seedPost(t, db, private, base.Add(2*time.Second), 0, 0)
	s1 := seedPost(t, db, stranger, base.Add(3*time.Second), 0, 0)
	s2 := seedPost(t, db, stranger, base.Add(4*time.Second), 0, 0)

	ids, err := repo.ExplorePostIDs(context.Background(), []uuid.UUID{viewer.ID, followed.ID}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{s2.ID, s1.ID}, ids)

	ids, err = repo.ExplorePostIDs(context.Background(), []uuid.UUID{viewer.ID, followed.ID}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{s1.ID}, ids)
}

func TestPostRepository_CreateAndSummaries(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	repo := database.NewPostRepositoryDatabase(db)
	author := seedUser(t, db, "bob", false)
	ctx := context.Background()

	p := &post.Post{ID: uuid.Must(uuid.NewV4()), AuthorID: author.ID, Caption: "hello", Location: "Tehran"}
	media := []*post.Media{
		{ID: uuid.Must(uuid.NewV4()), PostID: p.ID, MediaType: post.MediaVideo, URL: "https://cdn/2.mp4", Position: 1},
		{ID: uuid.Must(uuid.NewV4()), PostID: p.ID, MediaType: post.MediaImage, URL: "https://cdn/1.jpg", Position: 0},
	}
	require.NoError(t, repo.Create(ctx, p, media))

	summaries, err := repo.Summaries(ctx, []uuid.UUID{p.ID, uuid.Must(uuid.NewV4())})
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, p.ID.String(), s.ID)
	assert.Equal(t, "bob", s.AuthorHandle)
	assert.Equal(t, "hello", s.Caption)
	assert.Equal(t, "Tehran", s.Location)
	require.Len(t, s.Media, 2)
	assert.Equal(t, "https://cdn/1.jpg", s.Media[0].URL)
	assert.Equal(t, post.MediaVideo, s.Media[1].Type)

	_, err = repo.FindByID(ctx, uuid.Must(uuid.NewV4()))
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
