package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock is held by another caller.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker serializes stock mutations per (part, store) key. The ledger and
// reservation usecases acquire a lock before any read-modify-write cycle.
type Locker interface {
	// Acquire takes the lock for key, or fails with ErrNotAcquired.
	// The returned release func is safe to call more than once.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

type RedisLocker struct {
	client *redislock.Client
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb)}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	// Contending writers back off and retry before giving up, so routine
	// contention on one stock key linearizes instead of erroring.
	lock, err := l.client.Obtain(ctx, "lock:stock:"+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 3),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ErrNotAcquired
		}
		return nil, err
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			_ = lock.Release(context.Background())
		})
	}
	return release, nil
}

// MemoryLocker is an in-process Locker for tests and single-node deployments.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string, _ time.Duration) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()

	var once sync.Once
	release := func() {
		once.Do(m.Unlock)
	}
	return release, nil
}
