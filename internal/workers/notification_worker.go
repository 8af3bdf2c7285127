package workers

import (
	"context"

	"instafeed/internal/core/event"
	eventPort "instafeed/internal/ports/eventbus"

	"go.uber.org/zap"
)

const NotificationGroup = "notifications"

type EventHandler interface {
	HandleEvent(ctx context.Context, evt *event.DomainEvent) error
}

// NotificationWorker turns like, comment and follow events into
// notifications.
type NotificationWorker struct {
	Bus           eventPort.Subscriber
	Notifications EventHandler
	Logger        *zap.Logger
}

func NewNotificationWorker(bus eventPort.Subscriber, notifications EventHandler, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{Bus: bus, Notifications: notifications, Logger: logger.Named("notification-worker")}
}

func (w *NotificationWorker) Run(ctx context.Context) {
	w.Logger.Info("🚀 NotificationWorker started")
	subs := make([]subscription, 0, 3)
	for _, topic := range []string{event.PostLiked, event.CommentCreated, event.FollowCreated} {
		subs = append(subs, subscription{topic: topic, handler: w.handle})
	}
	consumeAll(ctx, w.Bus, NotificationGroup, subs, w.Logger)
	w.Logger.Info("🛑 NotificationWorker stopped")
}

func (w *NotificationWorker) handle(ctx context.Context, evt *event.DomainEvent) error {
	return permanentOnInvalid(w.Notifications.HandleEvent(ctx, evt))
}
