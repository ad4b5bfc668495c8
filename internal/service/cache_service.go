package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

// CacheRepository is the backing store for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

const (
	cacheTripAfter = 3
	cacheCooldown  = 30 * time.Second
)

// CacheService fronts a CacheRepository. Store errors never fail a request: after
// cacheTripAfter consecutive errors the cache is bypassed for cacheCooldown.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
	now        func() time.Time

	loads     singleflight.Group
	failures  atomic.Int32
	openUntil atomic.Int64
}

func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled, now: time.Now}
}

// Enabled reports whether lookups currently reach the store.
func (s *CacheService) Enabled() bool {
	if s == nil || !s.enabled || s.repo == nil {
		return false
	}
	return s.now().UnixNano() >= s.openUntil.Load()
}

// Get fills dest and reports a hit. Misses and store errors both report false.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	switch {
	case err == nil:
		s.metrics.RecordCache(CacheOpGet, CacheHit, time.Since(start))
		s.succeeded()
		return true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		s.metrics.RecordCache(CacheOpGet, CacheMiss, time.Since(start))
		s.succeeded()
		return false, nil
	default:
		s.metrics.RecordCache(CacheOpGet, CacheError, time.Since(start))
		s.failed("get", key, err)
		return false, err
	}
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	if err := s.repo.Set(ctx, key, value, ttl); err != nil {
		s.metrics.RecordCache(CacheOpSet, CacheError, time.Since(start))
		s.failed("set", key, err)
		return err
	}
	s.metrics.RecordCache(CacheOpSet, CacheOK, time.Since(start))
	s.succeeded()
	return nil
}

// InvalidatePrefix drops every entry whose key starts with prefix.
func (s *CacheService) InvalidatePrefix(ctx context.Context, prefix string) error {
	if !s.Enabled() {
		return nil
	}
	start := time.Now()
	if err := s.repo.DeletePrefix(ctx, prefix); err != nil {
		s.metrics.RecordCache(CacheOpInvalidate, CacheError, time.Since(start))
		s.failed("invalidate", prefix, err)
		return err
	}
	s.metrics.RecordCache(CacheOpInvalidate, CacheOK, time.Since(start))
	s.succeeded()
	return nil
}

func (s *CacheService) succeeded() { s.failures.Store(0) }

func (s *CacheService) failed(op, key string, err error) {
	s.logger.Warn("cache "+op+" failed", zap.String("key", key), zap.Error(err))
	if s.failures.Add(1) < cacheTripAfter {
		return
	}
	s.failures.Store(0)
	s.openUntil.Store(s.now().Add(cacheCooldown).UnixNano())
	s.logger.Warn("cache bypassed after repeated failures", zap.Duration("cooldown", cacheCooldown))
}

// Remember returns the cached value for key, or runs load and caches its result.
// Concurrent misses on one key share a single load. A nil cache just calls load.
func Remember[T any](ctx context.Context, cache *CacheService, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, bool, error) {
	var cached T
	if cache == nil {
		v, err := load(ctx)
		return v, false, err
	}
	if hit, _ := cache.Get(ctx, key, &cached); hit {
		return cached, true, nil
	}
	v, err, _ := cache.loads.Do(key, func() (interface{}, error) {
		fresh, err := load(ctx)
		if err != nil {
			return nil, err
		}
		_ = cache.Set(ctx, key, fresh, ttl)
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v.(T), false, nil
}
