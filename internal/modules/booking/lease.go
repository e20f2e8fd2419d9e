package booking

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const sweepLeaseKey = "booking:sweeper:lease"

// RedisLease is a SET NX lock that lapses on its own; it is never released
// early so a tick on another replica cannot overlap.
type RedisLease struct {
	rdb   *redis.Client
	key   string
	owner string
}

func NewRedisLease(rdb *redis.Client, owner string) *RedisLease {
	return &RedisLease{rdb: rdb, key: sweepLeaseKey, owner: owner}
}

func (l *RedisLease) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, l.key, l.owner, ttl).Result()
}
