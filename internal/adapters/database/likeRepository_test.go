package database_test

import (
	"context"
	"sync"
	"testing"

	"instafeed/internal/adapters/database"
	"instafeed/internal/core/post"
	"instafeed/internal/testutil"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeRepository_ConcurrentDoubleLike(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	repo := database.NewLikeRepositoryDatabase(db)
	author := seedUser(t, db, "bob", false)
	liker := seedUser(t, db, "alice", false)
	p := seedPost(t, db, author, base, 0, 0)

	var wg sync.WaitGroup
	results := make([]bool, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = repo.Like(context.Background(), liker.ID, p.ID)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.True(t, results[0] != results[1], "exactly one call creates the like")

	var rows int64
	require.NoError(t, db.Model(&post.Like{}).Where("user_id = ? AND post_id = ?", liker.ID, p.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	var stored post.Post
	require.NoError(t, db.First(&stored, "id = ?", p.ID).Error)
	assert.Equal(t, int64(1), stored.LikesCount)
}

func TestLikeRepository_UnlikeClampsAtZero(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	repo := database.NewLikeRepositoryDatabase(db)
	author := seedUser(t, db, "bob", false)
	liker := seedUser(t, db, "alice", false)
	p := seedPost(t, db, author, base, 0, 0)
	ctx := context.Background()

	created, err := repo.Like(ctx, liker.ID, p.ID)
	require.NoError(t, err)
	require.True(t, created)

	liked, err := repo.LikedPostIDs(ctx, liker.ID, []uuid.UUID{p.ID, uuid.Must(uuid.NewV4())})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]bool{p.ID: true}, liked)

	// Counter drifted below the row count; the decrement must not go negative.
	require.NoError(t, db.Model(&post.Post{}).Where("id = ?", p.ID).UpdateColumn("likes_count", 0).Error)

	deleted, err := repo.Unlike(ctx, liker.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Unlike(ctx, liker.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	var stored post.Post
	require.NoError(t, db.First(&stored, "id = ?", p.ID).Error)
	assert.Equal(t, int64(0), stored.LikesCount)
}
