package workers

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type StoryPurger interface {
	PurgeExpired(ctx context.Context, batch int) (int64, error)
}

type NotificationPurger interface {
	PurgeRead(ctx context.Context, retention time.Duration, batch int) (int64, error)
}

// CleanupWorker removes expired stories and old read notifications in
// bounded batches.
type CleanupWorker struct {
	Stories       StoryPurger
	Notifications NotificationPurger
	Retention     time.Duration
	BatchSize     int
	Interval      time.Duration
	Logger        *zap.Logger
}

func NewCleanupWorker(stories StoryPurger, notifications NotificationPurger, retention time.Duration, batchSize int, interval time.Duration, logger *zap.Logger) *CleanupWorker {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &CleanupWorker{
		Stories:       stories,
		Notifications: notifications,
		Retention:     retention,
		BatchSize:     batchSize,
		Interval:      interval,
		Logger:        logger.Named("cleanup-worker"),
	}
}

func (w *CleanupWorker) Run(ctx context.Context) {
	w.Logger.Info("🚀 CleanupWorker started")
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("🛑 CleanupWorker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce drains both tables batch by batch and returns the removed counts.
func (w *CleanupWorker) RunOnce(ctx context.Context) (stories, notifications int64) {
	stories = w.drain(ctx, "stories", func() (int64, error) {
		return w.Stories.PurgeExpired(ctx, w.BatchSize)
	})
	notifications = w.drain(ctx, "notifications", func() (int64, error) {
		return w.Notifications.PurgeRead(ctx, w.Retention, w.BatchSize)
	})
	if stories+notifications > 0 {
		w.Logger.Info("🧹 Cleanup finished", zap.Int64("Stories", stories), zap.Int64("Notifications", notifications))
	}
	return stories, notifications
}

func (w *CleanupWorker) drain(ctx context.Context, what string, purge func() (int64, error)) int64 {
	var total int64
	for ctx.Err() == nil {
		n, err := purge()
		if err != nil {
			w.Logger.Error("❌ Cleanup batch failed", zap.String("Table", what), zap.Error(err))
			break
		}
		total += n
		if n == 0 || n < int64(w.BatchSize) {
			break
		}
	}
	return total
}
