package queue

import (
	"context"
	"sync"
)

// MemoryQueue is an unbounded in-process queue used in tests and
// single-process deployments where Redis is not available.
type MemoryQueue struct {
	mu      sync.Mutex
	jobs    []JobPayload
	dead    []JobPayload
	wakeups chan struct{}
}

// NewMemoryQueue builds an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{wakeups: make(chan struct{}, 1)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, payload JobPayload) error {
	q.mu.Lock()
	q.jobs = append(q.jobs, payload)
	q.mu.Unlock()
	select {
	case q.wakeups <- struct{}{}:
	default:
	}
	return nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (JobPayload, error) {
	for {
		q.mu.Lock()
		if len(q.jobs) > 0 {
			payload := q.jobs[0]
			q.jobs = q.jobs[1:]
			q.mu.Unlock()
			return payload, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return JobPayload{}, ctx.Err()
		case <-q.wakeups:
		}
	}
}

func (q *MemoryQueue) Fail(ctx context.Context, payload JobPayload, cause string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dead = append(q.dead, payload)
	return nil
}

// Len reports the number of queued jobs.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// DeadLetters returns terminally failed payloads.
func (q *MemoryQueue) DeadLetters() []JobPayload {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]JobPayload(nil), q.dead...)
}
