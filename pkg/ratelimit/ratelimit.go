package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLimited is returned when an identity has exhausted its window budget.
var ErrLimited = errors.New("rate limit exceeded")

// Limiter enforces fixed-window counters in Redis, shared across
// processes. Keys are scoped per endpoint group and identity.
type Limiter struct {
	redis *redis.Client
}

func New(redisClient *redis.Client) *Limiter {
	return &Limiter{redis: redisClient}
}

func counterKey(scope, identity string) string {
	return fmt.Sprintf("rl:%s:%s", scope, identity)
}

// Allow records a hit for scope+identity and reports whether it is
// within the budget. The window TTL is set on the first hit only, so
// the counter resets when the window elapses.
func (l *Limiter) Allow(ctx context.Context, scope, identity string, limit int, window time.Duration) error {
	key := counterKey(scope, identity)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("rate limiter unavailable: %w", err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, window).Err(); err != nil {
			return fmt.Errorf("rate limiter unavailable: %w", err)
		}
	}

	if count > int64(limit) {
		return ErrLimited
	}
	return nil
}

// Remaining returns how many hits are left in the current window.
func (l *Limiter) Remaining(ctx context.Context, scope, identity string, limit int) (int, error) {
	count, err := l.redis.Get(ctx, counterKey(scope, identity)).Int64()
	if errors.Is(err, redis.Nil) {
		return limit, nil
	}
	if err != nil {
		return 0, fmt.Errorf("rate limiter unavailable: %w", err)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Reset clears the counter for scope+identity.
func (l *Limiter) Reset(ctx context.Context, scope, identity string) error {
	if err := l.redis.Del(ctx, counterKey(scope, identity)).Err(); err != nil {
		return fmt.Errorf("rate limiter unavailable: %w", err)
	}
	return nil
}
