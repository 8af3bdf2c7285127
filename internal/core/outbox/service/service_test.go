package outboxapp

import (
	"context"
	"errors"
	"testing"

	"instafeed/internal/adapters/database"
	"instafeed/internal/core/event"
	"instafeed/internal/testutil"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPublisher(t *testing.T) (*ReliablePublisher, *testutil.Bus, *database.OutboxRepositoryDatabase) {
	t.Helper()

	bus := &testutil.Bus{}
	repo := database.NewOutboxRepositoryDatabase(testutil.NewDB(t))
	p := NewReliablePublisher(bus, repo, testutil.Logger(t))
	p.newBackOff = func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1) }
	return p, bus, repo
}

func TestReliablePublisher_PublishesToBus(t *testing.T) {
	t.Parallel()

	p, bus, repo := setupPublisher(t)
	evt := event.New(event.PostCreated, "author")

	require.NoError(t, p.Publish(context.Background(), event.PostCreated, evt))
	assert.Equal(t, []string{event.PostCreated}, bus.Topics())

	pending, err := repo.Pending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReliablePublisher_FallsBackToOutbox(t *testing.T) {
	t.Parallel()

	p, bus, repo := setupPublisher(t)
	bus.Err = errors.New("broker down")
	evt := event.New(event.PostLiked, "liker")
	evt.TargetUserID = "owner"

	require.NoError(t, p.Publish(context.Background(), event.PostLiked, evt))

	pending, err := repo.Pending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, event.PostLiked, pending[0].Topic)
	assert.Equal(t, "owner", pending[0].Key)

	restored, err := Decode(pending[0])
	require.NoError(t, err)
	assert.Equal(t, evt.ID, restored.ID)
	assert.Equal(t, "liker", restored.ActorID)
}
