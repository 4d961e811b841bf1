package calls

import (
	"context"
	"fmt"
	"time"

	"quality-desk/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const leaseKeyPrefix = "quality-desk:call-session:"

// RedisGuard holds a per-operator lease in Redis so two API replicas cannot
// both track a live session for the same operator. The TTL frees the lease
// if a process dies mid-call.
type RedisGuard struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewRedisGuard(rdb *redis.Client, operatorID string, ttl time.Duration) *RedisGuard {
	return &RedisGuard{rdb: rdb, key: leaseKeyPrefix + operatorID, ttl: ttl}
}

func (g *RedisGuard) Acquire(ctx context.Context, sessionID string) error {
	ok, err := utils.AcquireLease(ctx, g.rdb, g.key, sessionID, g.ttl)
	if err != nil {
		return fmt.Errorf("calls: session lease: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: held by another process", ErrConflict)
	}
	return nil
}

func (g *RedisGuard) Release(ctx context.Context, sessionID string) error {
	return utils.ReleaseLease(ctx, g.rdb, g.key, sessionID)
}
