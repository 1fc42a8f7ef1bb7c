// Package dedup remembers webhook event ids so redelivered events are
// handled once.
package dedup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/go-redis/redis/v8"
)

const keyPrefix = "parcel:webhook-event:"

// Redis records ids with SETNX so every replica shares one view.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// FirstSeen marks id as seen and reports whether it was new.
func (r *Redis) FirstSeen(ctx context.Context, id string) (bool, error) {
	ok, err := r.client.SetNX(ctx, keyPrefix+id, 1, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// Local is a per-process fallback backed by ristretto. Entries may be
// evicted early under memory pressure.
type Local struct {
	mu    sync.Mutex
	cache *ristretto.Cache[string, struct{}]
	ttl   time.Duration
}

func NewLocal(maxEntries int64, ttl time.Duration) (*Local, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, struct{}]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("ristretto: %w", err)
	}
	return &Local{cache: c, ttl: ttl}, nil
}

func (l *Local) FirstSeen(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.cache.Get(id); ok {
		return false, nil
	}
	l.cache.SetWithTTL(id, struct{}{}, 1, l.ttl)
	l.cache.Wait()
	return true, nil
}

func (l *Local) Close() {
	l.cache.Close()
}
