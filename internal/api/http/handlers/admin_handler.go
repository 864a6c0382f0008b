package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AdminHandler manages administrative endpoints.
type AdminHandler struct {
	cfg            config.AdminConfig
	tokens         *auth.TokenManager
	classification *service.ClassificationService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(cfg config.AdminConfig, tokens *auth.TokenManager, classification *service.ClassificationService) *AdminHandler {
	return &AdminHandler{cfg: cfg, tokens: tokens, classification: classification}
}

// Login POST /admin/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if h.cfg.PasswordHash == "" {
		return apperrors.NewUnauthorized("admin login not configured")
	}
	if req.Username != h.cfg.Username || auth.ComparePassword(h.cfg.PasswordHash, req.Password) != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := h.tokens.GenerateToken(req.Username)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AdminLoginResponse{Token: token, ExpiresAt: expiresAt}})
}

// ClassifyAll POST /admin/classify-all. Enqueues one classification job per
// ticket, batched to bound burst load on the classification backend.
func (h *AdminHandler) ClassifyAll(c *fiber.Ctx) error {
	var req dto.BulkClassifyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}

	delaySeconds := req.DelaySeconds
	if delaySeconds <= 0 {
		delaySeconds = 1
	}
	dispatched, err := h.classification.BulkDispatch(c.UserContext(), service.BulkDispatchOptions{
		BatchSize: req.BatchSize,
		Delay:     time.Duration(delaySeconds) * time.Second,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BulkClassifyResponse{Dispatched: dispatched}})
}

// ClassifyInline POST /admin/tickets/:id/classify. Runs classification
// synchronously and returns the updated ticket.
func (h *AdminHandler) ClassifyInline(c *fiber.Ctx) error {
	ticket, err := h.classification.ClassifyInline(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}
