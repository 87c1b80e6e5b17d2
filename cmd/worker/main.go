package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/social-platform/social-platform/internal/config"
	"github.com/social-platform/social-platform/internal/services"
	"github.com/social-platform/social-platform/internal/workers"
	"github.com/social-platform/social-platform/pkg/cache"
	"github.com/social-platform/social-platform/pkg/logger"
	"github.com/social-platform/social-platform/pkg/queue"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.NewLogger()
	logger.Info("Starting activity worker...")

	redisClient := cache.NewRedisClient(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.MinIdleConns,
	)
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	activityService := services.NewActivityService(redisClient, logger)

	userEventsConsumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.UserEvents, "activity-worker-group")
	contentEventsConsumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.ContentEvents, "activity-worker-group")

	userWorker := workers.NewActivityWorker(userEventsConsumer, activityService, logger)
	contentWorker := workers.NewActivityWorker(contentEventsConsumer, activityService, logger)

	go func() {
		if err := userWorker.Start(ctx); err != nil && err != context.Canceled {
			logger.WithError(err).Error("User events worker stopped with error")
		}
	}()

	go func() {
		if err := contentWorker.Start(ctx); err != nil && err != context.Canceled {
			logger.WithError(err).Error("Content events worker stopped with error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down workers...")

	if err := userWorker.Stop(); err != nil {
		logger.WithError(err).Error("Failed to stop user events worker")
	}
	if err := contentWorker.Stop(); err != nil {
		logger.WithError(err).Error("Failed to stop content events worker")
	}

	logger.Info("Workers exited")
}
