package worker

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/queue"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

const sweepPageSize = 200

// Sweeper periodically enqueues classification jobs for tickets that have
// never been classified, catching tickets whose on-create enqueue was lost.
type Sweeper struct {
	tickets repository.TicketRepository
	queue   queue.Queue
	logger  *zap.Logger
	cron    *cron.Cron
}

// NewSweeper constructs the sweeper.
func NewSweeper(tickets repository.TicketRepository, q queue.Queue, logger *zap.Logger) *Sweeper {
	return &Sweeper{tickets: tickets, queue: q, logger: logger, cron: cron.New()}
}

// Start schedules the sweep with the given cron expression.
func (s *Sweeper) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.Sweep(context.Background()); err != nil {
			s.logger.Error("classification sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("classification sweeper started", zap.String("schedule", spec))
	return nil
}

// Stop halts the schedule; a running sweep finishes.
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

// Sweep enqueues one job per uncategorized, never-classified ticket.
func (s *Sweeper) Sweep(ctx context.Context) error {
	bucket := repository.UncategorizedBucket
	enqueued := 0
	for offset := 0; ; offset += sweepPageSize {
		page, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
			Category: &bucket,
			Limit:    sweepPageSize,
			Offset:   offset,
		})
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}
		for _, ticket := range page {
			if ticket.HasExplanation() {
				// Already classified at least once; leave it alone.
				continue
			}
			if err := s.queue.Enqueue(ctx, queue.JobPayload{TicketID: ticket.ID}); err != nil {
				return err
			}
			enqueued++
		}
		if len(page) < sweepPageSize {
			break
		}
	}
	if enqueued > 0 {
		s.logger.Info("classification sweep enqueued jobs", zap.Int("count", enqueued))
	}
	return nil
}
