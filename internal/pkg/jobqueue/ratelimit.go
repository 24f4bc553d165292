package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// RateLimiter bounds outbound platform operations per rolling window. The
// counter lives in Redis so every worker process shares the same budget; the
// external platform throttles per app, not per process, and exceeding its
// ceiling risks the whole tenant fleet.
type RateLimiter struct {
	client *redis.Client
	name   string
	limit  int
	window time.Duration
}

// NewRateLimiter creates a limiter allowing limit operations per window.
func NewRateLimiter(client *redis.Client, name string, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 20
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		client: client,
		name:   name,
		limit:  limit,
		window: window,
	}
}

// Acquire blocks until an operation slot is available in the current window
// or the context is cancelled.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	for {
		window := time.Now().Unix() / int64(l.window.Seconds())
		key := fmt.Sprintf("ratelimit:%s:%d", l.name, window)

		count, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("rate limiter incr failed: %w", err)
		}
		if count == 1 {
			// First hit in this window sets the expiry so stale counters
			// cannot accumulate.
			if err := l.client.Expire(ctx, key, l.window+time.Second).Err(); err != nil {
				log.Errorf("[RateLimit] Failed to set expiry on %s: %v", key, err)
			}
		}
		if count <= int64(l.limit) {
			return nil
		}

		// Window exhausted; undo our increment and wait for the next window.
		if err := l.client.Decr(ctx, key).Err(); err != nil {
			log.Errorf("[RateLimit] Failed to decr %s: %v", key, err)
		}
		wait := l.untilNextWindow()
		log.Debugf("[RateLimit] %s exhausted (%d/%d), waiting %s", l.name, count-1, l.limit, wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (l *RateLimiter) untilNextWindow() time.Duration {
	windowSecs := int64(l.window.Seconds())
	now := time.Now().Unix()
	next := (now/windowSecs + 1) * windowSecs
	wait := time.Duration(next-now) * time.Second
	if wait <= 0 {
		wait = time.Second
	}
	return wait
}
