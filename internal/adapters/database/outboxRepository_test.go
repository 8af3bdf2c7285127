package database_test

import (
	"context"
	"testing"
	"time"

	"instafeed/internal/adapters/database"
	"instafeed/internal/core/outbox"
	"instafeed/internal/core/story"
	"instafeed/internal/testutil"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxRepository_PendingLifecycle(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	repo := database.NewOutboxRepositoryDatabase(db)
	ctx := context.Background()

	first := &outbox.Entry{ID: uuid.Must(uuid.NewV4()), Topic: "post_liked", Key: "u1", Payload: []byte(`{}`), Status: outbox.StatusPending, CreatedAt: base}
	second := &outbox.Entry{ID: uuid.Must(uuid.NewV4()), Topic: "post_created", Key: "u2", Payload: []byte(`{}`), Status: outbox.StatusPending, CreatedAt: base.Add(time.Second)}
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, first))

	pending, err := repo.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)

	require.NoError(t, repo.MarkFailedAttempt(ctx, first.ID, "bus down"))
	require.NoError(t, repo.MarkDone(ctx, second.ID))

	pending, err = repo.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, "bus down", pending[0].LastError)
}

func TestStoryRepository_ActiveAndExpired(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	repo := database.NewStoryRepositoryDatabase(db)
	author := seedUser(t, db, "bob", false)
	ctx := context.Background()

	live := &story.Story{ID: uuid.Must(uuid.NewV4()), UserID: author.ID, MediaType: "image", MediaURL: "u", CreatedAt: base, ExpiresAt: base.Add(story.Lifetime)}
	gone := &story.Story{ID: uuid.Must(uuid.NewV4()), UserID: author.ID, MediaType: "image", MediaURL: "u", CreatedAt: base.Add(-25 * time.Hour), ExpiresAt: base.Add(-time.Hour)}
	require.NoError(t, repo.Create(ctx, live))
	require.NoError(t, repo.Create(ctx, gone))

	active, err := repo.ActiveByAuthors(ctx, []uuid.UUID{author.ID}, base)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, live.ID, active[0].ID)

	n, err := repo.DeleteExpired(ctx, base, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
