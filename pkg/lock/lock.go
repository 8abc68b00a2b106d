package lock

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rewards:lock:"

// Locker serializes callers working on the same logical key. Within a
// process a keyed mutex does the work; when a Redis client is present a
// short-lived SETNX lock extends the exclusion across processes. Redis being
// down degrades to process-local locking rather than failing the caller —
// the ledger's unique idempotency constraint is the hard backstop either way.
type Locker struct {
	rdb *redis.Client

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func New(rdb *redis.Client) *Locker {
	return &Locker{
		rdb:     rdb,
		entries: make(map[string]*entry),
	}
}

// Acquire blocks until the key is held, then returns a release func.
// ttl bounds both the Redis key lifetime and how long we wait for a peer
// process to let go.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	if l.rdb != nil {
		deadline := time.Now().Add(ttl)
		for {
			wasSet, err := l.rdb.SetNX(ctx, keyPrefix+key, "locked", ttl).Result()
			if err != nil || wasSet {
				break
			}
			if time.Now().After(deadline) {
				break
			}
			select {
			case <-ctx.Done():
				l.release(key, e)
				return nil, ctx.Err()
			case <-time.After(50 * time.Millisecond):
			}
		}
	}

	release := func() {
		if l.rdb != nil {
			l.rdb.Del(context.Background(), keyPrefix+key)
		}
		l.release(key, e)
	}
	return release, nil
}

func (l *Locker) release(key string, e *entry) {
	e.mu.Unlock()
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}
