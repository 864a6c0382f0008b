package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/queue"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const maxSubjectLength = 255

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	queue      queue.Queue
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Queue      queue.Queue
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Subject string
	Body    string
}

// TicketUpdateInput describes the editable fields of a ticket. Nil fields
// are left untouched.
type TicketUpdateInput struct {
	Status   *domain.TicketStatus
	Category *string
	Note     *string
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Search   *string
	Status   *domain.TicketStatus
	Category *string
	Page     int
	PageSize int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		queue:      deps.Queue,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// CreateTicket validates and persists a new ticket, then enqueues one
// classification job for it. Enqueue failures are logged, not surfaced: the
// ticket exists either way and a later sweep will pick it up.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	body := strings.TrimSpace(input.Body)
	if subject == "" {
		return nil, apperrors.NewValidationError("subject required", nil)
	}
	if len(subject) > maxSubjectLength {
		return nil, apperrors.NewValidationError("subject too long", map[string]any{"max_length": maxSubjectLength})
	}
	if body == "" {
		return nil, apperrors.NewValidationError("body required", nil)
	}

	ticket := &domain.Ticket{
		ID:      domain.NewTicketID(),
		Subject: subject,
		Body:    body,
		Status:  domain.TicketStatusOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, queue.JobPayload{TicketID: ticket.ID}); err != nil {
		s.logger.Error("failed to enqueue classification job",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Subject: ticket.Subject,
			Status:  ticket.Status,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket by identifier.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// ListTickets returns paginated tickets matching the filter.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		Search:   filter.Search,
		Status:   filter.Status,
		Category: filter.Category,
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	})
}

// UpdateTicket applies status/category/note edits from an external caller.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	if input.Status != nil {
		if !domain.ValidStatus(*input.Status) {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{
				"allowed": []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusPending, domain.TicketStatusClosed},
			})
		}
		ticket.Status = *input.Status
	}
	if input.Category != nil {
		ticket.Category = input.Category
	}
	if input.Note != nil {
		ticket.Note = input.Note
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if input.Status != nil && oldStatus != ticket.Status {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
			},
		})
	}
	return ticket, nil
}

// Stats returns counts by status and category; tickets with no category are
// bucketed as "Uncategorized".
func (s *TicketService) Stats(ctx context.Context) (*repository.TicketStats, error) {
	return s.tickets.Stats(ctx)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
