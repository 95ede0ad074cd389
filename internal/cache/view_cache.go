package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	viewCountSuffix = "_view_count"
	lastSavedSuffix = "_view_count_last_saved"
	scanBatchSize   = 200
)

// ViewCache holds per-product view counters between durable flushes.
type ViewCache interface {
	// Increment seeds the counter with seed when it is absent, increments
	// it and returns the new value.
	Increment(ctx context.Context, productID uint, seed int64) (int64, error)
	// Count returns the cached counter; ok is false when none is cached.
	Count(ctx context.Context, productID uint) (count int64, ok bool, err error)
	LastSaved(ctx context.Context, productID uint) (at time.Time, ok bool, err error)
	SetLastSaved(ctx context.Context, productID uint, at time.Time) error
	// PendingProductIDs lists products with a cached counter.
	PendingProductIDs(ctx context.Context) ([]uint, error)
}

func ViewCountKey(productID uint) string {
	return fmt.Sprintf("%d%s", productID, viewCountSuffix)
}

func LastSavedKey(productID uint) string {
	return fmt.Sprintf("%d%s", productID, lastSavedSuffix)
}

type redisViewCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisViewCache(rdb redis.UniversalClient, ttl time.Duration) ViewCache {
	return &redisViewCache{rdb: rdb, ttl: ttl}
}

func (c *redisViewCache) Increment(ctx context.Context, productID uint, seed int64) (int64, error) {
	key := ViewCountKey(productID)
	var incr *redis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, seed, c.ttl)
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", key, err)
	}
	return incr.Val(), nil
}

func (c *redisViewCache) Count(ctx context.Context, productID uint) (int64, bool, error) {
	count, err := c.rdb.Get(ctx, ViewCountKey(productID)).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

func (c *redisViewCache) LastSaved(ctx context.Context, productID uint) (time.Time, bool, error) {
	val, err := c.rdb.Get(ctx, LastSavedKey(productID)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	at, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		// treated as never saved
		return time.Time{}, false, nil
	}
	return at, true, nil
}

func (c *redisViewCache) SetLastSaved(ctx context.Context, productID uint, at time.Time) error {
	return c.rdb.Set(ctx, LastSavedKey(productID), at.UTC().Format(time.RFC3339Nano), c.ttl).Err()
}

func (c *redisViewCache) PendingProductIDs(ctx context.Context) ([]uint, error) {
	var (
		cursor uint64
		ids    []uint
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, "*"+viewCountSuffix, scanBatchSize).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			id, err := strconv.ParseUint(strings.TrimSuffix(key, viewCountSuffix), 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, uint(id))
		}
		if next == 0 {
			return ids, nil
		}
		cursor = next
	}
}
