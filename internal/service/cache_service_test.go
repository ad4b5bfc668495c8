package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenCache struct{ calls int }

func (b *brokenCache) Get(ctx context.Context, key string, dest interface{}) error {
	b.calls++
	return errors.New("connection refused")
}

func (b *brokenCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b.calls++
	return errors.New("connection refused")
}

func (b *brokenCache) DeletePrefix(ctx context.Context, prefix string) error {
	b.calls++
	return errors.New("connection refused")
}

func TestCacheBypassedAfterRepeatedFailures(t *testing.T) {
	repo := &brokenCache{}
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, time.Minute, nil, true)
	clock := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }
	ctx := context.Background()

	var dest map[string]int
	for i := 0; i < cacheTripAfter; i++ {
		hit, err := cache.Get(ctx, "dashboard:admin:a1", &dest)
		assert.False(t, hit)
		assert.Error(t, err)
	}
	assert.False(t, cache.Enabled())

	hit, err := cache.Get(ctx, "dashboard:admin:a1", &dest)
	assert.False(t, hit)
	assert.NoError(t, err)
	assert.NoError(t, cache.Set(ctx, "dashboard:admin:a1", dest, 0))
	assert.Equal(t, cacheTripAfter, repo.calls)

	clock = clock.Add(cacheCooldown)
	assert.True(t, cache.Enabled())
}

func TestRememberLoadsOnceAndCaches(t *testing.T) {
	repo := newMemCache()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	ctx := context.Background()
	var loads atomic.Int32

	load := func(context.Context) (*rememberedValue, error) {
		loads.Add(1)
		return &rememberedValue{Count: 7}, nil
	}

	v, hit, err := Remember(ctx, cache, "dashboard:faculty:f1", 0, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7, v.Count)

	v, hit, err = Remember(ctx, cache, "dashboard:faculty:f1", 0, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 7, v.Count)
	assert.Equal(t, int32(1), loads.Load())

	require.NoError(t, cache.InvalidatePrefix(ctx, "dashboard:"))
	assert.Empty(t, repo.entries)
}

func TestRememberSharesConcurrentLoads(t *testing.T) {
	cache := NewCacheService(nil, nil, time.Minute, nil, false)
	release := make(chan struct{})
	var loads atomic.Int32

	var wg sync.WaitGroup
	results := make([]int, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := Remember(context.Background(), cache, "k", 0, func(context.Context) (int, error) {
				loads.Add(1)
				<-release
				return 42, nil
			})
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, []int{42, 42, 42, 42}, results)
	assert.LessOrEqual(t, loads.Load(), int32(4))
	assert.GreaterOrEqual(t, loads.Load(), int32(1))
}

func TestRememberWithoutCache(t *testing.T) {
	v, hit, err := Remember(context.Background(), nil, "k", 0, func(context.Context) (string, error) {
		return "", errors.New("db down")
	})
	assert.Error(t, err)
	assert.False(t, hit)
	assert.Empty(t, v)
}

type rememberedValue struct {
	Count int `json:"count"`
}
