// Package cache provides a Redis read-through cache in front of the statistics store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/lookingforlove/internal/adapters/repository"
	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/pkg/logger"
	"github.com/okian/lookingforlove/pkg/metrics"
)

const (
	defaultTTL = 30 * time.Second
	defaultKey = "lfl:statistics:" + model.StatisticsKey
)

// Connect creates a Redis client and verifies it answers a PING.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Option applies a configuration option to the StatisticsCache.
type Option func(*StatisticsCache)

// WithTTL sets how long a cached snapshot stays valid.
func WithTTL(ttl time.Duration) Option {
	return func(c *StatisticsCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKey sets the Redis key holding the snapshot.
func WithKey(key string) Option {
	return func(c *StatisticsCache) {
		if key != "" {
			c.key = key
		}
	}
}

// WithLogger sets the logger used for cache failures.
func WithLogger(l logger.Logger) Option {
	return func(c *StatisticsCache) {
		if l != nil {
			c.log = l
		}
	}
}

// fillScript stores a snapshot read on a cache miss only if no write bumped
// the generation since the read began. KEYS: snapshot, generation.
// ARGV: generation seen, payload, ttl in milliseconds.
var fillScript = redis.NewScript(`
if (redis.call('GET', KEYS[2]) or '0') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// StatisticsCache decorates a StatisticsStore. Reads go through Redis first;
// writes go to the inner store and then refresh or drop the cached copy.
// Every write bumps a generation counter so a miss that raced a write never
// puts its stale read back. Redis failures are logged and never fail the call.
type StatisticsCache struct {
	rdb   redis.Cmdable
	inner repository.StatisticsStore
	ttl   time.Duration
	key   string
	log   logger.Logger
}

var _ repository.StatisticsStore = (*StatisticsCache)(nil)

// NewStatisticsCache wraps inner with a cache held in rdb.
func NewStatisticsCache(rdb redis.Cmdable, inner repository.StatisticsStore, opts ...Option) *StatisticsCache {
	c := &StatisticsCache{
		rdb:   rdb,
		inner: inner,
		ttl:   defaultTTL,
		key:   defaultKey,
		log:   logger.Get().Named("statistics_cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load implements repository.StatisticsStore.
func (c *StatisticsCache) Load(ctx context.Context) (model.StatisticsSnapshot, error) {
	raw, err := c.rdb.Get(ctx, c.key).Bytes()
	switch {
	case err == nil:
		var snap model.StatisticsSnapshot
		jerr := json.Unmarshal(raw, &snap)
		if jerr == nil {
			metrics.RecordCacheLookup(true)
			return snap, nil
		}
		c.log.Warn(ctx, "discarding undecodable cached statistics", logger.Error(jerr))
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn(ctx, "statistics cache read failed", logger.Error(err))
		metrics.RecordErrorByComponent("cache", "read")
	}
	metrics.RecordCacheLookup(false)

	gen, genErr := c.rdb.Get(ctx, c.genKey()).Result()
	if errors.Is(genErr, redis.Nil) {
		gen, genErr = "0", nil
	}
	snap, err := c.inner.Load(ctx)
	if err != nil {
		return model.StatisticsSnapshot{}, err
	}
	if genErr == nil {
		c.fill(ctx, gen, snap)
	}
	return snap, nil
}

// Save implements repository.StatisticsStore.
func (c *StatisticsCache) Save(ctx context.Context, snap model.StatisticsSnapshot) error {
	if err := c.inner.Save(ctx, snap); err != nil {
		return err
	}
	c.put(ctx, snap)
	return nil
}

// IncrementContactExposed implements repository.StatisticsStore. The cached
// copy is dropped so the next Load observes the increment.
func (c *StatisticsCache) IncrementContactExposed(ctx context.Context) (bool, error) {
	applied, err := c.inner.IncrementContactExposed(ctx)
	if err != nil {
		return false, err
	}
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey())
		pipe.Del(ctx, c.key)
		return nil
	})
	if err != nil {
		c.log.Warn(ctx, "statistics cache invalidation failed", logger.Error(err))
		metrics.RecordErrorByComponent("cache", "invalidate")
	}
	return applied, nil
}

func (c *StatisticsCache) genKey() string {
	return c.key + ":gen"
}

// put stores a snapshot that was just written to the inner store.
func (c *StatisticsCache) put(ctx context.Context, snap model.StatisticsSnapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		c.log.Warn(ctx, "failed to encode statistics for cache", logger.Error(err))
		return
	}
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey())
		pipe.Set(ctx, c.key, raw, c.ttl)
		return nil
	})
	if err != nil {
		c.log.Warn(ctx, "statistics cache write failed", logger.Error(err))
		metrics.RecordErrorByComponent("cache", "write")
	}
}

// fill stores a snapshot read on a miss unless the generation moved past gen.
func (c *StatisticsCache) fill(ctx context.Context, gen string, snap model.StatisticsSnapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		c.log.Warn(ctx, "failed to encode statistics for cache", logger.Error(err))
		return
	}
	stored, err := fillScript.Run(ctx, c.rdb, []string{c.key, c.genKey()}, gen, raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.log.Warn(ctx, "statistics cache write failed", logger.Error(err))
		metrics.RecordErrorByComponent("cache", "write")
		return
	}
	if stored == 0 {
		c.log.Debug(ctx, "skipped caching statistics read that raced a write")
	}
}
