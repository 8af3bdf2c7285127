package workers

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type TrendingRefresher interface {
	RefreshTrending(ctx context.Context) ([]string, error)
}

// TrendingWorker recomputes the trending list on a fixed interval so reads
// rarely hit a cold cache.
type TrendingWorker struct {
	Trending TrendingRefresher
	Interval time.Duration
	Logger   *zap.Logger
}

func NewTrendingWorker(trending TrendingRefresher, interval time.Duration, logger *zap.Logger) *TrendingWorker {
	return &TrendingWorker{Trending: trending, Interval: interval, Logger: logger.Named("trending-worker")}
}

func (w *TrendingWorker) Run(ctx context.Context) {
	w.Logger.Info("🚀 TrendingWorker started")
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		w.refresh(ctx)
		select {
		case <-ctx.Done():
			w.Logger.Info("🛑 TrendingWorker stopped")
			return
		case <-ticker.C:
		}
	}
}

func (w *TrendingWorker) refresh(ctx context.Context) {
	ids, err := w.Trending.RefreshTrending(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.Logger.Error("❌ Trending refresh failed", zap.Error(err))
		}
		return
	}
	w.Logger.Debug("Trending refreshed", zap.Int("Count", len(ids)))
}
