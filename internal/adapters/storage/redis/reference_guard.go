package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"judokit/internal/core/ports"
)

const referenceKeyPrefix = "judokit:payref:"

var _ ports.ReferenceGuard = (*ReferenceGuard)(nil)

// ReferenceGuard remembers claimed payment references for ttl so a retried
// POST with the same reference is rejected before it reaches the gateway.
type ReferenceGuard struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewReferenceGuard(rdb redis.Cmdable, ttl time.Duration) *ReferenceGuard {
	return &ReferenceGuard{rdb: rdb, ttl: ttl}
}

// Claim atomically takes ref. It returns false if ref was claimed within ttl.
func (g *ReferenceGuard) Claim(ctx context.Context, ref string) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, referenceKeyPrefix+ref, 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis SETNX failed: %w", err)
	}
	return ok, nil
}

// Release frees ref so it can be claimed again.
func (g *ReferenceGuard) Release(ctx context.Context, ref string) error {
	if err := g.rdb.Del(ctx, referenceKeyPrefix+ref).Err(); err != nil {
		return fmt.Errorf("redis DEL failed: %w", err)
	}
	return nil
}
