package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/queue"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// JobRunner executes one classification attempt.
type JobRunner interface {
	RunJob(ctx context.Context, ticketID string) service.JobResult
}

// ClassificationWorker drains the job queue with a pool of goroutines.
// Attempt bookkeeping lives in the queue payload: a job is retried until it
// has been attempted MaxAttempts times in total, then dead-lettered.
type ClassificationWorker struct {
	queue       queue.Queue
	runner      JobRunner
	logger      *zap.Logger
	metrics     *observability.Metrics
	workers     int
	maxAttempts int
}

// ClassificationWorkerOptions configures the pool.
type ClassificationWorkerOptions struct {
	Queue       queue.Queue
	Runner      JobRunner
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	Workers     int
	MaxAttempts int
}

// NewClassificationWorker constructs the worker pool.
func NewClassificationWorker(opts ClassificationWorkerOptions) *ClassificationWorker {
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &ClassificationWorker{
		queue:       opts.Queue,
		runner:      opts.Runner,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		workers:     workers,
		maxAttempts: maxAttempts,
	}
}

// Start launches the pool and blocks until ctx is done and all workers have
// drained their in-flight job. There is no mechanism to cancel an in-flight
// job; each run completes or exhausts its retries.
func (w *ClassificationWorker) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, id)
		}(i)
	}
	wg.Wait()
}

func (w *ClassificationWorker) loop(ctx context.Context, id int) {
	logger := w.logger.With(zap.Int("worker", id))
	for {
		payload, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			logger.Error("dequeue failed", zap.Error(err))
			continue
		}
		w.process(ctx, logger, payload)
	}
}

func (w *ClassificationWorker) process(ctx context.Context, logger *zap.Logger, payload queue.JobPayload) {
	result := w.runner.RunJob(ctx, payload.TicketID)
	attempts := payload.Attempts + 1

	switch result {
	case service.JobDone:
		w.metrics.RecordJob("completed")
	case service.JobRetry:
		if attempts < w.maxAttempts {
			w.metrics.RecordJob("retried")
			retry := queue.JobPayload{TicketID: payload.TicketID, Attempts: attempts}
			if err := w.queue.Enqueue(ctx, retry); err != nil {
				logger.Error("failed to re-enqueue job",
					zap.String("ticket_id", payload.TicketID), zap.Error(err))
			}
			return
		}
		w.deadLetter(ctx, logger, payload, attempts, "retries exhausted")
	case service.JobTerminal:
		w.deadLetter(ctx, logger, payload, attempts, "terminal failure")
	}
}

func (w *ClassificationWorker) deadLetter(ctx context.Context, logger *zap.Logger, payload queue.JobPayload, attempts int, cause string) {
	w.metrics.RecordJob("failed")
	logger.Error("classification job failed permanently",
		zap.String("ticket_id", payload.TicketID),
		zap.Int("attempts", attempts),
		zap.String("cause", cause))
	if err := w.queue.Fail(ctx, payload, cause); err != nil {
		logger.Error("failed to record dead letter",
			zap.String("ticket_id", payload.TicketID), zap.Error(err))
	}
}
