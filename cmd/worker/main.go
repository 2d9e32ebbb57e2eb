package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"git-repo-analytics/internal/cache"
	"git-repo-analytics/internal/config"
	"git-repo-analytics/internal/database"
	"git-repo-analytics/internal/queue"
	"git-repo-analytics/internal/redis"
	"git-repo-analytics/internal/worker"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found, using environment variables")
	}

	cfg := config.Load()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to Redis")
	}
	defer redisClient.Close()

	store, err := newCacheStore(cfg, redisClient)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open cache store")
	}
	defer store.Close()

	handler := worker.NewJobHandler(db, store, cfg)
	consumer := queue.NewConsumer(
		redisClient,
		cfg.Redis.QueueName,
		handler,
		cfg.Worker.Concurrency,
	)

	logrus.WithField("concurrency", cfg.Worker.Concurrency).Info("starting worker")
	if err := consumer.Start(ctx); err != nil {
		logrus.WithError(err).Fatal("failed to start consumer")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down worker")
	cancel()
	consumer.Stop()
	logrus.Info("worker exited")
}

// newCacheStore picks the cache backend. Redis shares the queue's
// client; bolt keeps a local file per worker host.
func newCacheStore(cfg *config.Config, redisClient *redis.Client) (cache.Store, error) {
	if cfg.Cache.Backend == config.CacheBackendRedis {
		return cache.NewRedisStore(redisClient, ""), nil
	}
	return cache.NewBoltStore(cfg.Cache.Path)
}
