//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/lookingforlove/internal/adapters/repository"
	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/pkg/logger"
)

// Requires a running Redis. Set TEST_REDIS_ADDR, e.g. localhost:6379.

func TestIntegration_StatisticsCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping integration test")
	}
	require.NoError(t, logger.Init())

	ctx := context.Background()
	rdb, err := Connect(ctx, addr, 0)
	require.NoError(t, err)
	defer rdb.Close()

	key := "lfl:test:statistics"
	require.NoError(t, rdb.Del(ctx, key).Err())

	inner := repository.NewMemoryStatistics()
	c := NewStatisticsCache(rdb, inner, WithKey(key), WithTTL(time.Minute))

	require.NoError(t, c.Save(ctx, model.StatisticsSnapshot{TotalMatches: 2, Quality: model.NewMatchQuality()}))

	cached, err := rdb.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached)

	// A write behind the cache's back stays invisible until invalidation.
	require.NoError(t, inner.Save(ctx, model.StatisticsSnapshot{TotalMatches: 99, Quality: model.NewMatchQuality()}))
	snap, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.TotalMatches)

	applied, err := c.IncrementContactExposed(ctx)
	require.NoError(t, err)
	assert.True(t, applied)

	snap, err = c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 99, snap.TotalMatches)
	assert.Equal(t, 1, snap.TotalContactInfoExposed)
	assert.Len(t, snap.Quality.CountsPerStar, 5)
}

// racingInner runs hook after reading the snapshot, once.
type racingInner struct {
	repository.StatisticsStore
	hook func()
}

func (r *racingInner) Load(ctx context.Context) (model.StatisticsSnapshot, error) {
	snap, err := r.StatisticsStore.Load(ctx)
	if r.hook != nil {
		hook := r.hook
		r.hook = nil
		hook()
	}
	return snap, err
}

func TestIntegration_StatisticsCacheMissRacingIncrement(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping integration test")
	}
	require.NoError(t, logger.Init())

	ctx := context.Background()
	rdb, err := Connect(ctx, addr, 0)
	require.NoError(t, err)
	defer rdb.Close()

	key := "lfl:test:statistics:race"
	require.NoError(t, rdb.Del(ctx, key, key+":gen").Err())

	inner := repository.NewMemoryStatistics()
	require.NoError(t, inner.Save(ctx, model.StatisticsSnapshot{TotalMatches: 3, Quality: model.NewMatchQuality()}))

	racing := &racingInner{StatisticsStore: inner}
	c := NewStatisticsCache(rdb, racing, WithKey(key), WithTTL(time.Minute))
	racing.hook = func() {
		_, err := c.IncrementContactExposed(ctx)
		require.NoError(t, err)
	}

	stale, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stale.TotalContactInfoExposed)

	cached, err := rdb.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), cached, "stale read must not be cached")

	fresh, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.TotalContactInfoExposed)
}
