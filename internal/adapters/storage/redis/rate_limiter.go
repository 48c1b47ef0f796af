package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "judokit:ratelimit:"

// RateLimiter is a fixed-window request counter.
type RateLimiter struct {
	rdb redis.Cmdable
}

func NewRateLimiter(rdb redis.Cmdable) *RateLimiter {
	return &RateLimiter{rdb: rdb}
}

// IsAllowed counts a request for key and reports whether it is within limit
// for the current window.
func (a *RateLimiter) IsAllowed(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	k := rateLimitKeyPrefix + key
	count, err := a.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("redis INCR failed: %w", err)
	}

	// First request in the window starts the expiry.
	if count == 1 {
		if err := a.rdb.Expire(ctx, k, window).Err(); err != nil {
			return false, fmt.Errorf("redis EXPIRE failed: %w", err)
		}
	}

	return count <= int64(limit), nil
}
