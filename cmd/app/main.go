package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	dbadapter "instafeed/internal/adapters/database"
	"instafeed/internal/adapters/httpapi"
	kafkaadapter "instafeed/internal/adapters/kafka"
	redisadapter "instafeed/internal/adapters/redis"
	"instafeed/internal/config"
	"instafeed/internal/core/cachemanager"
	commentapp "instafeed/internal/core/comment/service"
	feedapp "instafeed/internal/core/feed/service"
	followerapp "instafeed/internal/core/follower/service"
	notificationapp "instafeed/internal/core/notification/service"
	outboxapp "instafeed/internal/core/outbox/service"
	postapp "instafeed/internal/core/post/service"
	storyapp "instafeed/internal/core/story/service"
	userapp "instafeed/internal/core/user/service"
	eventPort "instafeed/internal/ports/eventbus"
	"instafeed/internal/workers"

	"github.com/go-redis/redis/v8"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg, dotenv, cfgErr := config.Load()
	env := "development"
	if cfg != nil {
		env = cfg.Env
	}
	logger, err := config.InitLogger(env)
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfgErr != nil {
		logger.Fatal("Invalid configuration", zap.Error(cfgErr))
	}
	if !dotenv {
		logger.Info("No .env file found, using system environment variables")
	}
	logger.Info("✅ Zap logger initialized", zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(ctx, cfg.DB, logger)
	if err != nil {
		logger.Fatal("Error connecting to the database", zap.Error(err))
	}
	if err := dbadapter.Migrate(db); err != nil {
		logger.Fatal("Error during migrations", zap.Error(err))
	}
	logger.Info("✅ Database migrations completed")

	redisClient, err := config.InitRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("Error connecting to Redis", zap.Error(err))
	}

	bus, err := newBus(cfg, redisClient, logger)
	if err != nil {
		logger.Fatal("Error creating event bus", zap.Error(err))
	}
	defer closeResources(logger, bus, redisClient, db)

	// Outbound adapters
	userRepo := dbadapter.NewUserRepositoryDatabase(db)
	followerRepo := dbadapter.NewFollowerRepositoryDatabase(db)
	postRepo := dbadapter.NewPostRepositoryDatabase(db)
	likeRepo := dbadapter.NewLikeRepositoryDatabase(db)
	savedRepo := dbadapter.NewSavedPostRepositoryDatabase(db)
	commentRepo := dbadapter.NewCommentRepositoryDatabase(db)
	notificationRepo := dbadapter.NewNotificationRepositoryDatabase(db)
	storyRepo := dbadapter.NewStoryRepositoryDatabase(db)
	outboxRepo := dbadapter.NewOutboxRepositoryDatabase(db)

	ttl := cachemanager.DefaultTTLs()
	ttl.Feed = cfg.FeedTTL
	ttl.Trending = cfg.TrendingTTL
	cache := cachemanager.New(redisadapter.NewCacheRedis(redisClient), ttl, logger)
	publisher := outboxapp.NewReliablePublisher(bus, outboxRepo, logger)
	limiter := redisadapter.NewFixedWindowLimiter(redisClient, cfg.RateLimitRules, cfg.RateLimitDefault, logger)

	// Use cases
	feedOpts := feedapp.DefaultOptions()
	feedOpts.Window = cfg.FeedWindow
	feedOpts.DefaultLimit = cfg.FeedDefaultPage
	feedOpts.Timeout = cfg.FeedTimeout
	feedOpts.TrendingWindow = cfg.TrendingWindow
	feedOpts.TrendingLimit = cfg.TrendingLimit
	feedSvc := feedapp.NewFeedService(followerRepo, postRepo, likeRepo, cache, feedOpts, logger)
	userSvc := userapp.NewUserService(userRepo, cache, []byte(cfg.JWTSecret), logger)
	postSvc := postapp.NewPostService(postRepo, likeRepo, savedRepo, userRepo, feedSvc, cache, publisher, logger)
	commentSvc := commentapp.NewCommentService(commentRepo, postRepo, cache, publisher, logger)
	followerSvc := followerapp.NewFollowerService(followerRepo, userRepo, feedSvc, cache, publisher, logger)
	notificationSvc := notificationapp.NewNotificationService(notificationRepo, logger)
	storySvc := storyapp.NewStoryService(storyRepo, followerRepo, userRepo, logger)

	// Inbound adapter
	r := httpapi.SetupRoutes(httpapi.UseCases{
		Users:         userSvc,
		Posts:         postSvc,
		Comments:      commentSvc,
		Followers:     followerSvc,
		Feed:          feedSvc,
		Notifications: notificationSvc,
		Stories:       storySvc,
	}, []byte(cfg.JWTSecret), limiter)

	var bg conc.WaitGroup
	bg.Go(func() { workers.NewOutboxRelay(outboxRepo, bus, cfg.BatchSize, cfg.OutboxInterval, logger).Run(ctx) })
	bg.Go(func() { workers.NewNotificationWorker(bus, notificationSvc, logger).Run(ctx) })
	bg.Go(func() { workers.NewFeedWorker(bus, feedSvc, logger).Run(ctx) })
	bg.Go(func() { workers.NewTrendingWorker(feedSvc, cfg.TrendingInterval, logger).Run(ctx) })
	bg.Go(func() {
		workers.NewCleanupWorker(storySvc, notificationSvc, cfg.NotificationMaxAge, cfg.BatchSize, cfg.CleanupInterval, logger).Run(ctx)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("App is running...", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("🛑 Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
	bg.Wait()
}

func newBus(cfg *config.Config, client *redis.Client, logger *zap.Logger) (eventPort.Bus, error) {
	if cfg.EventBus == "kafka" {
		b, err := kafkaadapter.NewBus(cfg.KafkaBootstrap, cfg.KafkaGroupPrefix, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return redisadapter.NewStreamBus(client, cfg.StreamConsumer, logger), nil
}

// closeResources closes the bus, Redis and the database, in that order.
func closeResources(logger *zap.Logger, bus eventPort.Bus, client *redis.Client, db *gorm.DB) {
	if err := bus.Close(); err != nil {
		logger.Error("Error closing event bus", zap.Error(err))
	}
	if err := client.Close(); err != nil {
		logger.Error("Error closing Redis connection", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Error getting raw DB", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("Error closing database connection", zap.Error(err))
	}
}
