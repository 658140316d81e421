// Package lock runs background jobs on one replica at a time.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"kitchenledger/pkg/logger"
)

// Locker runs fn while holding key. It reports false, without running fn,
// when another holder has the key.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error)
}

// RedisLocker implements Locker with bsm/redislock.
type RedisLocker struct {
	client *redislock.Client
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a locker on an existing Redis client.
func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: redislock.New(client)}
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error) {
	lk, err := l.client.Obtain(ctx, "lock:"+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	defer func() {
		// Background ctx so the lock is released after ctx is cancelled.
		if err := lk.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.Warn(ctx, "failed to release lock", "key", key, "error", err)
		}
	}()

	lockCtx, cancel := context.WithTimeout(ctx, ttl)
	defer cancel()
	return true, fn(lockCtx)
}

// Local always obtains the lock. Used with a single replica or without Redis.
type Local struct{}

var _ Locker = Local{}

func (Local) WithLock(ctx context.Context, _ string, _ time.Duration, fn func(ctx context.Context) error) (bool, error) {
	return true, fn(ctx)
}
