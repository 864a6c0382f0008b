package domain

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "open"
	TicketStatusPending TicketStatus = "pending"
	TicketStatusClosed  TicketStatus = "closed"
)

// ValidStatus reports whether s is one of the three ticket states.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusPending, TicketStatusClosed:
		return true
	}
	return false
}

// Ticket is the aggregate for help-desk requests.
type Ticket struct {
	ID          string
	Subject     string
	Body        string
	Status      TicketStatus
	Category    *string
	Note        *string
	Explanation *string
	Confidence  *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasCategory reports whether the ticket carries a non-empty category.
func (t *Ticket) HasCategory() bool {
	return t.Category != nil && *t.Category != ""
}

// HasExplanation reports whether a classification explanation has been recorded.
func (t *Ticket) HasExplanation() bool {
	return t.Explanation != nil && *t.Explanation != ""
}

// ManuallyCategorized reports whether the category was set by a human edit.
// A category with no recorded explanation means classification never ran
// for that value, so it must have come from a manual edit.
func (t *Ticket) ManuallyCategorized() bool {
	return t.HasCategory() && !t.HasExplanation()
}

// NewTicketID mints a ULID: time-ordered, lexicographically sortable,
// assigned exactly once at creation.
func NewTicketID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
