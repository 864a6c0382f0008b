package service

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/queue"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func newTicketService(repo *fakeTicketRepo, q queue.Queue) *TicketService {
	return NewTicketService(TicketDependencies{
		TicketRepo: repo,
		Queue:      q,
		Logger:     zap.NewNop(),
	})
}

func TestCreateTicket_RoundTripDefaults(t *testing.T) {
	repo := newFakeTicketRepo()
	q := queue.NewMemoryQueue()
	svc := newTicketService(repo, q)

	created, err := svc.CreateTicket(context.Background(), TicketCreateInput{
		Subject: "  Email not working properly  ",
		Body:    "It stopped syncing yesterday.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("identifier must be assigned at creation")
	}
	if created.Subject != "Email not working properly" {
		t.Fatalf("subject not trimmed: %q", created.Subject)
	}

	fetched, err := svc.GetTicket(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("fetch after create: %v", err)
	}
	if fetched.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %s, want open", fetched.Status)
	}
	if fetched.Category != nil || fetched.Explanation != nil || fetched.Confidence != nil {
		t.Fatal("classification fields must be absent on a fresh ticket")
	}
	if q.Len() != 1 {
		t.Fatalf("queue length = %d, want one on-create job", q.Len())
	}
}

func TestCreateTicket_Validation(t *testing.T) {
	cases := []struct {
		name    string
		subject string
		body    string
	}{
		{"empty subject", "", "body"},
		{"blank subject", "   ", "body"},
		{"empty body", "subject", ""},
		{"subject too long", strings.Repeat("x", 256), "body"},
	}
	svc := newTicketService(newFakeTicketRepo(), queue.NewMemoryQueue())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateTicket(context.Background(), TicketCreateInput{Subject: tc.subject, Body: tc.body})
			domainErr := apperrors.ToDomainError(err)
			if domainErr == nil || domainErr.Code != "VALIDATION_FAILED" {
				t.Fatalf("err = %v, want validation failure", err)
			}
		})
	}
}

func TestUpdateTicket_InvalidStatusRejected(t *testing.T) {
	ticket := &domain.Ticket{ID: "T1", Subject: "s", Body: "b", Status: domain.TicketStatusOpen}
	svc := newTicketService(newFakeTicketRepo(ticket), queue.NewMemoryQueue())

	bogus := domain.TicketStatus("resolved")
	_, err := svc.UpdateTicket(context.Background(), "T1", TicketUpdateInput{Status: &bogus})
	domainErr := apperrors.ToDomainError(err)
	if domainErr == nil || domainErr.Code != "VALIDATION_FAILED" {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestUpdateTicket_PartialEdit(t *testing.T) {
	ticket := &domain.Ticket{ID: "T2", Subject: "s", Body: "b", Status: domain.TicketStatusOpen}
	repo := newFakeTicketRepo(ticket)
	svc := newTicketService(repo, queue.NewMemoryQueue())

	pending := domain.TicketStatusPending
	note := "escalated to second line"
	updated, err := svc.UpdateTicket(context.Background(), "T2", TicketUpdateInput{Status: &pending, Note: &note})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.TicketStatusPending {
		t.Fatalf("status = %s, want pending", updated.Status)
	}
	if updated.Note == nil || *updated.Note != note {
		t.Fatalf("note = %v, want %q", updated.Note, note)
	}
	if updated.Category != nil {
		t.Fatal("category must stay untouched")
	}
}

func TestStats_BucketsUncategorized(t *testing.T) {
	repo := newFakeTicketRepo(
		&domain.Ticket{ID: "A", Subject: "s", Body: "b", Status: domain.TicketStatusOpen},
		&domain.Ticket{ID: "B", Subject: "s", Body: "b", Status: domain.TicketStatusClosed, Category: strPtr("billing")},
		&domain.Ticket{ID: "C", Subject: "s", Body: "b", Status: domain.TicketStatusOpen, Category: strPtr("")},
	)
	svc := newTicketService(repo, queue.NewMemoryQueue())

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 3 {
		t.Fatalf("total = %d, want 3", stats.Total)
	}
	if stats.ByCategory["Uncategorized"] != 2 {
		t.Fatalf("uncategorized = %d, want 2 (nil and empty)", stats.ByCategory["Uncategorized"])
	}
	if stats.ByStatus["open"] != 2 || stats.ByStatus["closed"] != 1 {
		t.Fatalf("status counts = %v", stats.ByStatus)
	}
}
