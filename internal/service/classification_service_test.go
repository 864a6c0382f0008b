package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/queue"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// --- Fakes ---

type fakeTicketRepo struct {
	mu                   sync.Mutex
	tickets              map[string]*domain.Ticket
	classificationWrites int
	classificationErr    error
}

func newFakeTicketRepo(tickets ...*domain.Ticket) *fakeTicketRepo {
	repo := &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
	for _, t := range tickets {
		copied := *t
		repo.tickets[t.ID] = &copied
	}
	return repo
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Status = ticket.Status
	stored.Category = ticket.Category
	stored.Note = ticket.Note
	return nil
}

func (r *fakeTicketRepo) UpdateClassification(ctx context.Context, id string, category domain.Category, explanation string, confidence float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.classificationErr != nil {
		return r.classificationErr
	}
	stored, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	categoryStr := string(category)
	stored.Category = &categoryStr
	stored.Explanation = &explanation
	stored.Confidence = &confidence
	r.classificationWrites++
	return nil
}

func (r *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	all, _ := r.ListAll(ctx)
	var result []domain.Ticket
	for _, ticket := range all {
		if filter.Category != nil && *filter.Category == repository.UncategorizedBucket && ticket.HasCategory() {
			continue
		}
		result = append(result, ticket)
	}
	offset := filter.Offset
	if offset > len(result) {
		return nil, nil
	}
	result = result[offset:]
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *fakeTicketRepo) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		result = append(result, *ticket)
	}
	return result, nil
}

func (r *fakeTicketRepo) Stats(ctx context.Context) (*repository.TicketStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repository.TicketStats{ByStatus: map[string]int64{}, ByCategory: map[string]int64{}}
	for _, ticket := range r.tickets {
		stats.ByStatus[string(ticket.Status)]++
		if ticket.HasCategory() {
			stats.ByCategory[*ticket.Category]++
		} else {
			stats.ByCategory[repository.UncategorizedBucket]++
		}
		stats.Total++
	}
	return stats, nil
}

func (r *fakeTicketRepo) writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.classificationWrites
}

type stubStrategy struct {
	result domain.ClassificationResult
}

func (s *stubStrategy) Classify(ctx context.Context, subject, body string) domain.ClassificationResult {
	return s.result
}

func technicalResult() domain.ClassificationResult {
	return domain.ClassificationResult{
		Category:    domain.CategoryTechnical,
		Explanation: "Looks like an error report.",
		Confidence:  0.70,
	}
}

func newClassificationService(repo *fakeTicketRepo, q queue.Queue, result domain.ClassificationResult) *ClassificationService {
	return NewClassificationService(ClassificationDependencies{
		TicketRepo: repo,
		Strategy:   &stubStrategy{result: result},
		Queue:      q,
		Logger:     zap.NewNop(),
	})
}

func strPtr(s string) *string { return &s }

// --- RunJob ---

func TestRunJob_MissingTicketCompletesAsNoop(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newClassificationService(repo, queue.NewMemoryQueue(), technicalResult())

	result := svc.RunJob(context.Background(), "01ARZ3NDEKTSV4RRFFQ69G5FAV")

	if result != JobDone {
		t.Fatalf("result = %v, want JobDone", result)
	}
	if repo.writes() != 0 {
		t.Fatalf("classification writes = %d, want 0", repo.writes())
	}
}

func TestRunJob_ManualCategoryPreservedThenOverwritten(t *testing.T) {
	ticket := &domain.Ticket{
		ID:       "T1",
		Subject:  "Payment was charged twice",
		Body:     "see attached statement",
		Status:   domain.TicketStatusOpen,
		Category: strPtr("billing"),
	}
	repo := newFakeTicketRepo(ticket)
	svc := newClassificationService(repo, queue.NewMemoryQueue(), technicalResult())

	// First run: category was set manually (no explanation recorded), so it
	// is preserved while explanation and confidence are populated.
	if result := svc.RunJob(context.Background(), "T1"); result != JobDone {
		t.Fatalf("first run = %v, want JobDone", result)
	}
	stored, _ := repo.GetByID(context.Background(), "T1")
	if *stored.Category != "billing" {
		t.Fatalf("category = %s, want preserved billing", *stored.Category)
	}
	if stored.Explanation == nil || stored.Confidence == nil {
		t.Fatal("explanation and confidence must be populated by the first run")
	}

	// Second run: the explanation recorded above marks the category as
	// machine-owned, so it is overwritten.
	if result := svc.RunJob(context.Background(), "T1"); result != JobDone {
		t.Fatalf("second run = %v, want JobDone", result)
	}
	stored, _ = repo.GetByID(context.Background(), "T1")
	if *stored.Category != "technical" {
		t.Fatalf("category = %s, want overwritten technical", *stored.Category)
	}
}

func TestRunJob_AutomaticCategoryOverwritten(t *testing.T) {
	ticket := &domain.Ticket{
		ID:          "T2",
		Subject:     "s",
		Body:        "b",
		Status:      domain.TicketStatusOpen,
		Category:    strPtr("general"),
		Explanation: strPtr("from an earlier automatic run"),
		Confidence:  floatPtr(0.5),
	}
	repo := newFakeTicketRepo(ticket)
	svc := newClassificationService(repo, queue.NewMemoryQueue(), technicalResult())

	if result := svc.RunJob(context.Background(), "T2"); result != JobDone {
		t.Fatalf("result = %v, want JobDone", result)
	}
	stored, _ := repo.GetByID(context.Background(), "T2")
	if *stored.Category != "technical" {
		t.Fatalf("category = %s, want technical", *stored.Category)
	}
	if *stored.Confidence != 0.70 {
		t.Fatalf("confidence = %v, want 0.70", *stored.Confidence)
	}
}

func TestRunJob_PersistFailureIsRetryable(t *testing.T) {
	ticket := &domain.Ticket{ID: "T3", Subject: "s", Body: "b", Status: domain.TicketStatusOpen}
	repo := newFakeTicketRepo(ticket)
	repo.classificationErr = errors.New("connection reset")
	svc := newClassificationService(repo, queue.NewMemoryQueue(), technicalResult())

	if result := svc.RunJob(context.Background(), "T3"); result != JobRetry {
		t.Fatalf("result = %v, want JobRetry", result)
	}
}

// --- ClassifyInline ---

func TestClassifyInline_PreservesManualCategory(t *testing.T) {
	ticket := &domain.Ticket{
		ID:       "T4",
		Subject:  "s",
		Body:     "b",
		Status:   domain.TicketStatusOpen,
		Category: strPtr("account"),
	}
	repo := newFakeTicketRepo(ticket)
	svc := newClassificationService(repo, queue.NewMemoryQueue(), technicalResult())

	updated, err := svc.ClassifyInline(context.Background(), "T4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *updated.Category != "account" {
		t.Fatalf("category = %s, want preserved account", *updated.Category)
	}
	if updated.Explanation == nil || *updated.Explanation == "" {
		t.Fatal("explanation must be refreshed")
	}
}

func TestClassifyInline_MissingTicket(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newClassificationService(repo, queue.NewMemoryQueue(), technicalResult())

	if _, err := svc.ClassifyInline(context.Background(), "nope"); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("err = %v, want pgx.ErrNoRows", err)
	}
}

// --- BulkDispatch ---

func TestBulkDispatch_NoTickets(t *testing.T) {
	repo := newFakeTicketRepo()
	q := queue.NewMemoryQueue()
	svc := newClassificationService(repo, q, technicalResult())

	dispatched, err := svc.BulkDispatch(context.Background(), BulkDispatchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dispatched != 0 {
		t.Fatalf("dispatched = %d, want 0", dispatched)
	}
	if q.Len() != 0 {
		t.Fatalf("queue length = %d, want 0", q.Len())
	}
}

func TestBulkDispatch_EnqueuesOneJobPerTicket(t *testing.T) {
	var tickets []*domain.Ticket
	for _, id := range []string{"A", "B", "C", "D", "E"} {
		tickets = append(tickets, &domain.Ticket{ID: id, Subject: "s", Body: "b", Status: domain.TicketStatusOpen})
	}
	repo := newFakeTicketRepo(tickets...)
	q := queue.NewMemoryQueue()
	svc := newClassificationService(repo, q, technicalResult())

	dispatched, err := svc.BulkDispatch(context.Background(), BulkDispatchOptions{BatchSize: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dispatched != 5 {
		t.Fatalf("dispatched = %d, want 5", dispatched)
	}
	if q.Len() != 5 {
		t.Fatalf("queue length = %d, want 5", q.Len())
	}
}

func floatPtr(f float64) *float64 { return &f }
