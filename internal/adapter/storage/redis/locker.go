package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	redsyncgoredis "github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// LockOptions tunes the distributed lock. Expiry bounds how long a crashed
// holder can block a stream.
type LockOptions struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

// DefaultLockOptions waits up to a few seconds for a busy key.
func DefaultLockOptions() LockOptions {
	return LockOptions{
		Expiry:     10 * time.Second,
		Tries:      64,
		RetryDelay: 50 * time.Millisecond,
	}
}

// Locker implements ports.Locker across processes with redsync mutexes.
type Locker struct {
	rs     *redsync.Redsync
	opts   LockOptions
	prefix string
	log    zerolog.Logger
}

// NewLocker creates a distributed locker on client.
func NewLocker(client *goredis.Client, opts LockOptions, log zerolog.Logger) *Locker {
	return &Locker{
		rs:     redsync.New(redsyncgoredis.NewPool(client)),
		opts:   opts,
		prefix: "lock:",
		log:    log,
	}
}

// Lock acquires key or fails once the configured tries are spent.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	mutex := l.rs.NewMutex(
		l.prefix+key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}

	return func() {
		// The caller's context may already be done; the lock must still go.
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if ok, err := mutex.UnlockContext(ctx); !ok || err != nil {
			l.log.Warn().Err(err).Str("lock_key", key).Bool("unlock_ok", ok).Msg("failed to release lock")
		}
	}, nil
}
