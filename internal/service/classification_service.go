package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/classifier"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/queue"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// JobResult is the explicit outcome of one classification job run. The queue
// collaborator owns attempt bookkeeping; the job itself never retries.
type JobResult int

const (
	// JobDone means the run finished and must not be retried. A run against
	// a ticket deleted since enqueue also completes as a no-op.
	JobDone JobResult = iota
	// JobRetry means a transient failure occurred and the queue should
	// redeliver, subject to the attempt limit.
	JobRetry
	// JobTerminal means the job must not be retried and should be surfaced
	// to the operator failure log.
	JobTerminal
)

// BulkDispatchOptions bounds burst load on the classification backend.
type BulkDispatchOptions struct {
	BatchSize int
	Delay     time.Duration
}

const (
	defaultBulkBatchSize = 10
	progressInterval     = 10
)

// ClassificationService owns the classification job, the manual-categorization
// reconciliation policy and the dispatch surface.
type ClassificationService struct {
	tickets    repository.TicketRepository
	strategy   classifier.Strategy
	queue      queue.Queue
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ClassificationDependencies bundles collaborators.
type ClassificationDependencies struct {
	TicketRepo repository.TicketRepository
	Strategy   classifier.Strategy
	Queue      queue.Queue
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewClassificationService constructs the service.
func NewClassificationService(deps ClassificationDependencies) *ClassificationService {
	return &ClassificationService{
		tickets:    deps.TicketRepo,
		strategy:   deps.Strategy,
		queue:      deps.Queue,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// RunJob executes one classification attempt for the given ticket ID.
//
// A category set by a human edit is preserved: the signal is a non-empty
// category with no recorded explanation, meaning classification never ran for
// that value. Explanation and confidence are always refreshed. When the
// category came from a previous automatic run (explanation present) it is
// overwritten along with the other two fields.
func (s *ClassificationService) RunJob(ctx context.Context, ticketID string) JobResult {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Ticket deleted since enqueue; drop the job silently.
			return JobDone
		}
		s.logger.Error("failed to load ticket for classification",
			zap.String("ticket_id", ticketID), zap.Error(err))
		return JobRetry
	}

	preserveCategory := ticket.ManuallyCategorized()
	result := s.strategy.Classify(ctx, ticket.Subject, ticket.Body)

	category := result.Category
	if preserveCategory {
		category = domain.Category(*ticket.Category)
	}

	if err := s.tickets.UpdateClassification(ctx, ticket.ID, category, result.Explanation, result.Confidence); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JobDone
		}
		s.logger.Error("failed to persist classification",
			zap.String("ticket_id", ticketID), zap.Error(err))
		return JobRetry
	}

	s.publishClassified(ctx, ticket.ID, category, result.Confidence, preserveCategory)
	return JobDone
}

// ClassifyInline runs classification synchronously for the administrative
// override path and returns the updated ticket. It applies the same
// manual-categorization guard as the asynchronous job.
func (s *ClassificationService) ClassifyInline(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	preserveCategory := ticket.ManuallyCategorized()
	result := s.strategy.Classify(ctx, ticket.Subject, ticket.Body)

	category := result.Category
	if preserveCategory {
		category = domain.Category(*ticket.Category)
	}

	if err := s.tickets.UpdateClassification(ctx, ticket.ID, category, result.Explanation, result.Confidence); err != nil {
		return nil, err
	}
	s.publishClassified(ctx, ticket.ID, category, result.Confidence, preserveCategory)

	categoryStr := string(category)
	ticket.Category = &categoryStr
	ticket.Explanation = &result.Explanation
	ticket.Confidence = &result.Confidence
	return ticket, nil
}

// Dispatch enqueues one classification job for the given ticket ID.
// Fire-and-forget from the caller's perspective.
func (s *ClassificationService) Dispatch(ctx context.Context, ticketID string) error {
	return s.queue.Enqueue(ctx, queue.JobPayload{TicketID: ticketID})
}

// BulkDispatch enumerates all tickets and enqueues one job each, in batches
// with a delay between batches. Returns the number of jobs dispatched.
func (s *ClassificationService) BulkDispatch(ctx context.Context, opts BulkDispatchOptions) (int, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBulkBatchSize
	}
	delay := opts.Delay
	if delay < 0 {
		delay = 0
	}

	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	total := len(tickets)
	if total == 0 {
		s.logger.Info("no tickets found to classify")
		return 0, nil
	}

	s.logger.Info("bulk classification dispatch starting",
		zap.Int("total", total),
		zap.Int("batch_size", batchSize),
		zap.Duration("delay", delay))

	dispatched := 0
	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		for _, ticket := range tickets[start:end] {
			if err := s.queue.Enqueue(ctx, queue.JobPayload{TicketID: ticket.ID}); err != nil {
				return dispatched, err
			}
			dispatched++
			if dispatched%progressInterval == 0 {
				s.logger.Info("bulk classification progress",
					zap.Int("dispatched", dispatched), zap.Int("total", total))
			}
		}
		if delay > 0 && end < total {
			select {
			case <-ctx.Done():
				return dispatched, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	s.logger.Info("bulk classification dispatch finished", zap.Int("dispatched", dispatched))
	return dispatched, nil
}

func (s *ClassificationService) publishClassified(ctx context.Context, ticketID string, category domain.Category, confidence float64, preserved bool) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketClassified,
		TicketID:  ticketID,
		Timestamp: time.Now(),
		Payload: events.TicketClassifiedPayload{
			Category:          category,
			Confidence:        confidence,
			CategoryPreserved: preserved,
		},
	})
}
