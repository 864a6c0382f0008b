package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// UpdateTicketRequest payload; absent fields are left untouched.
type UpdateTicketRequest struct {
	Status   *string `json:"status"`
	Category *string `json:"category"`
	Note     *string `json:"note"`
}

// TicketResponse is the full ticket representation.
type TicketResponse struct {
	ID          string              `json:"id"`
	Subject     string              `json:"subject"`
	Body        string              `json:"body"`
	Status      domain.TicketStatus `json:"status"`
	Category    *string             `json:"category"`
	Note        *string             `json:"note"`
	Explanation *string             `json:"explanation"`
	Confidence  *float64            `json:"confidence"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// StatsResponse aggregates ticket counts.
type StatsResponse struct {
	Status   map[string]int64 `json:"status"`
	Category map[string]int64 `json:"category"`
	Total    int64            `json:"total"`
}

// AdminLoginRequest payload.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminLoginResponse carries the issued token.
type AdminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BulkClassifyRequest tunes the administrative bulk dispatch.
type BulkClassifyRequest struct {
	BatchSize    int `json:"batch_size"`
	DelaySeconds int `json:"delay_seconds"`
}

// BulkClassifyResponse reports how many jobs were enqueued.
type BulkClassifyResponse struct {
	Dispatched int `json:"dispatched"`
}
