package workers

import (
	"context"

	"instafeed/internal/core/event"
	eventPort "instafeed/internal/ports/eventbus"
	feedPort "instafeed/internal/ports/feed"

	"go.uber.org/zap"
)

const FeedGroup = "feed-invalidation"

type FeedMaintainer interface {
	feedPort.Invalidator
	feedPort.Warmer
}

// FeedWorker drops materialized feeds affected by new posts and follows. The
// write path already invalidates synchronously; this catches writes from
// other instances and retries whatever failed there. A new follower's feed
// is rebuilt right away since they are about to read it.
type FeedWorker struct {
	Bus    eventPort.Subscriber
	Feeds  FeedMaintainer
	Logger *zap.Logger
}

func NewFeedWorker(bus eventPort.Subscriber, feeds FeedMaintainer, logger *zap.Logger) *FeedWorker {
	return &FeedWorker{Bus: bus, Feeds: feeds, Logger: logger.Named("feed-worker")}
}

func (w *FeedWorker) Run(ctx context.Context) {
	w.Logger.Info("🚀 FeedWorker started")
	consumeAll(ctx, w.Bus, FeedGroup, []subscription{
		{topic: event.PostCreated, handler: w.onPostCreated},
		{topic: event.FollowCreated, handler: w.onFollowCreated},
	}, w.Logger)
	w.Logger.Info("🛑 FeedWorker stopped")
}

func (w *FeedWorker) onPostCreated(ctx context.Context, evt *event.DomainEvent) error {
	w.Feeds.InvalidateUser(ctx, evt.ActorID)
	return permanentOnInvalid(w.Feeds.InvalidateFollowers(ctx, evt.ActorID))
}

func (w *FeedWorker) onFollowCreated(ctx context.Context, evt *event.DomainEvent) error {
	w.Feeds.InvalidateUser(ctx, evt.ActorID)
	return permanentOnInvalid(w.Feeds.WarmFeed(ctx, evt.ActorID))
}
