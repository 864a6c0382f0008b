package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets        *service.TicketService
	classification *service.ClassificationService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, classification *service.ClassificationService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, classification: classification}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), service.TicketCreateInput{
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := service.TicketListFilter{
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), 10),
	}
	if search := c.Query("search"); search != "" {
		filter.Search = &search
	}
	if status := c.Query("status"); status != "" {
		ts := domain.TicketStatus(strings.TrimSpace(status))
		if !domain.ValidStatus(ts) {
			return apperrors.NewValidationError("invalid status filter", nil)
		}
		filter.Status = &ts
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}

	tickets, err := h.tickets.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketUpdateInput{
		Category: req.Category,
		Note:     req.Note,
	}
	if req.Status != nil {
		status := domain.TicketStatus(*req.Status)
		input.Status = &status
	}

	ticket, err := h.tickets.UpdateTicket(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Classify POST /tickets/:id/classify. Enqueues one classification job;
// execution is asynchronous and decoupled from this request.
func (h *TicketsHandler) Classify(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.tickets.GetTicket(c.UserContext(), id); err != nil {
		return err
	}
	if err := h.classification.Dispatch(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Classification job dispatched."})
}

// Stats GET /stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.tickets.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.StatsResponse{
		Status:   stats.ByStatus,
		Category: stats.ByCategory,
		Total:    stats.Total,
	})
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:          ticket.ID,
		Subject:     ticket.Subject,
		Body:        ticket.Body,
		Status:      ticket.Status,
		Category:    ticket.Category,
		Note:        ticket.Note,
		Explanation: ticket.Explanation,
		Confidence:  ticket.Confidence,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}
