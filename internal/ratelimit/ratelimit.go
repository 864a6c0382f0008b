package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const window = time.Minute

// Limiter gates how many hits a key may make per fixed one-minute window.
type Limiter interface {
	// Allow consumes one attempt for key. When the limit is exceeded it
	// returns false along with the time until the window resets.
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// RedisLimiter implements a fixed-window counter with INCR + EXPIRE.
type RedisLimiter struct {
	client *redis.Client
	limit  int
}

// NewRedisLimiter builds a limiter allowing limit hits per minute per key.
func NewRedisLimiter(client *redis.Client, limit int) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			return false, 0, err
		}
	}
	if count > int64(l.limit) {
		ttl, err := l.client.TTL(ctx, key).Result()
		if err != nil || ttl < 0 {
			ttl = window
		}
		return false, ttl, nil
	}
	return true, 0, nil
}

// MemoryLimiter is a fixed-window limiter for tests and single-process runs.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	counts  map[string]int
	resets  map[string]time.Time
	timeNow func() time.Time
}

// NewMemoryLimiter builds an in-memory limiter allowing limit hits per minute.
func NewMemoryLimiter(limit int) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		counts:  map[string]int{},
		resets:  map[string]time.Time{},
		timeNow: time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.timeNow()
	if reset, ok := l.resets[key]; !ok || now.After(reset) {
		l.counts[key] = 0
		l.resets[key] = now.Add(window)
	}
	l.counts[key]++
	if l.counts[key] > l.limit {
		return false, l.resets[key].Sub(now), nil
	}
	return true, 0, nil
}
