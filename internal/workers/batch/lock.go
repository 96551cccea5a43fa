package batch

import (
	"context"
	"time"

	"stockpulse/pkg/errors"
	"stockpulse/pkg/logger"
)

// Locker is a best-effort distributed mutex. Implemented by redis.Client.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// withLock runs fn while holding key. A nil locker runs fn unguarded.
// Returns errors.ErrLockHeld when another instance owns the lock.
func withLock(ctx context.Context, locker Locker, key string, ttl time.Duration, log *logger.Logger, fn func(context.Context) error) error {
	if locker == nil {
		return fn(ctx)
	}

	ok, err := locker.AcquireLock(ctx, key, ttl)
	if err != nil {
		return errors.Wrapf(err, "acquire lock %s", key)
	}
	if !ok {
		return errors.Wrapf(errors.ErrLockHeld, "lock %s", key)
	}

	defer func() {
		// release even when ctx was cancelled mid-run
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := locker.ReleaseLock(releaseCtx, key); err != nil {
			log.Warnw("Failed to release lock", "key", key, "error", err)
		}
	}()

	return fn(ctx)
}
