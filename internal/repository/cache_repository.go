package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

const (
	cacheNamespace = "campus:"
	scanBatch      = 200
)

// CacheRepository keeps JSON payloads in Redis under the "campus:" namespace.
// A nil client turns reads into misses and writes into no-ops.
type CacheRepository struct {
	client redis.UniversalClient
	logger *zap.Logger
}

func NewCacheRepository(client redis.UniversalClient, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger}
}

func namespaced(key string) string { return cacheNamespace + key }

func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, namespaced(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return appErrors.ErrCacheMiss
	case err != nil:
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// a payload from an older shape is as good as a miss
		r.logger.Debug("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return appErrors.ErrCacheMiss
	}
	return nil
}

func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	if err := r.client.Set(ctx, namespaced(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// DeletePrefix walks matching keys with SCAN and unlinks them in pipelined batches.
func (r *CacheRepository) DeletePrefix(ctx context.Context, prefix string) error {
	if r.client == nil {
		return nil
	}
	iter := r.client.Scan(ctx, 0, namespaced(prefix)+"*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	removed := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := r.client.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("cache unlink %s*: %w", prefix, err)
		}
		removed += len(batch)
		batch = batch[:0]
		return nil
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan %s*: %w", prefix, err)
	}
	if err := flush(); err != nil {
		return err
	}
	r.logger.Debug("cache prefix invalidated", zap.String("prefix", prefix), zap.Int("keys", removed))
	return nil
}

func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
