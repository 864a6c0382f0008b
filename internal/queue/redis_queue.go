package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	jobsKey       = "classify:jobs"
	deadLetterKey = "classify:dead"

	dequeueBlock = 5 * time.Second
)

type deadLetter struct {
	TicketID string    `json:"ticket_id"`
	Attempts int       `json:"attempts"`
	Cause    string    `json:"cause"`
	FailedAt time.Time `json:"failed_at"`
}

// RedisQueue is a durable list-backed job queue.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue builds a queue on top of the shared Redis client.
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Enqueue(ctx context.Context, payload JobPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, jobsKey, data).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (JobPayload, error) {
	res, err := q.client.BRPop(ctx, dequeueBlock, jobsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return JobPayload{}, ErrEmpty
		}
		return JobPayload{}, err
	}
	// BRPop returns [key, value].
	if len(res) != 2 {
		return JobPayload{}, ErrEmpty
	}
	var payload JobPayload
	if err := json.Unmarshal([]byte(res[1]), &payload); err != nil {
		return JobPayload{}, err
	}
	return payload, nil
}

func (q *RedisQueue) Fail(ctx context.Context, payload JobPayload, cause string) error {
	data, err := json.Marshal(deadLetter{
		TicketID: payload.TicketID,
		Attempts: payload.Attempts,
		Cause:    cause,
		FailedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, deadLetterKey, data).Err()
}
