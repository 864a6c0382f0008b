// Command bulkclassify dispatches one classification job for every ticket,
// in rate-limited batches. Jobs are processed by the api server's worker pool.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/queue"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

func main() {
	batchSize := flag.Int("batch-size", 10, "number of tickets to enqueue per batch")
	delay := flag.Duration("delay", time.Second, "delay between batches")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	classificationService := service.NewClassificationService(service.ClassificationDependencies{
		TicketRepo: repository.NewTicketRepository(pg.Pool),
		Queue:      queue.NewRedisQueue(redis.Client),
		Logger:     logger,
	})

	dispatched, err := classificationService.BulkDispatch(ctx, service.BulkDispatchOptions{
		BatchSize: *batchSize,
		Delay:     *delay,
	})
	if err != nil {
		logger.Fatal("bulk dispatch failed", zap.Int("dispatched", dispatched), zap.Error(err))
	}
	logger.Info("bulk dispatch complete", zap.Int("dispatched", dispatched))
}
