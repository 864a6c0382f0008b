package queue

import (
	"context"
	"errors"
)

// ErrEmpty is returned by Dequeue when no job became available within the
// implementation's blocking window.
var ErrEmpty = errors.New("queue: no job available")

// JobPayload is the unit of work carried by the queue: a ticket identifier
// plus the number of attempts already made. The queue collaborator owns
// attempt bookkeeping; job logic never mutates it.
type JobPayload struct {
	TicketID string `json:"ticket_id"`
	Attempts int    `json:"attempts"`
}

// Queue is the collaborator contract for dispatching classification jobs.
type Queue interface {
	// Enqueue appends a job. Callers treat this as fire-and-forget.
	Enqueue(ctx context.Context, payload JobPayload) error
	// Dequeue blocks until a job is available or the context is done.
	Dequeue(ctx context.Context) (JobPayload, error)
	// Fail records a terminally failed job for operator inspection.
	Fail(ctx context.Context, payload JobPayload, cause string) error
}
