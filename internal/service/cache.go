package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type fetchFunc[T any] func(ctx context.Context) (T, error)

const cacheSetTimeout = 5 * time.Second

// ttlJitter spreads expirations by up to +-5% of the TTL (capped at +-15s) so
// results cached together do not all expire together. The jittered value is
// always positive for a positive TTL.
func ttlJitter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	span := ttl / 10
	if span > 30*time.Second {
		span = 30 * time.Second
	}
	if span <= 0 {
		return ttl
	}
	return ttl - span/2 + time.Duration(rand.Int63n(int64(span)))
}

// findAndCache is a read-through lookup: cache hit wins, a miss collapses
// concurrent fetches through singleflight and populates the cache in the
// background. Cache errors degrade to a plain fetch.
func findAndCache[T any](
	ctx context.Context,
	c Cacher,
	sf *singleflight.Group,
	key string,
	ttl time.Duration,
	logger *zap.Logger,
	fn fetchFunc[T],
) (T, error) {
	var zero T
	if logger == nil {
		logger = zap.NewNop()
	}

	if c != nil {
		var cached T
		err := c.Get(ctx, key, &cached)
		switch {
		case err == nil:
			logger.Debug("cache hit", zap.String("key", key))
			return cached, nil
		case errors.Is(err, redis.Nil):
			logger.Debug("cache miss", zap.String("key", key))
		default:
			logger.Warn("cache get error (treating as miss)", zap.String("key", key), zap.Error(err))
		}
	}

	v, err, shared := sf.Do(key, func() (any, error) {
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}

		if c != nil {
			go func(v T) {
				setCtx, cancel := context.WithTimeout(context.Background(), cacheSetTimeout)
				defer cancel()
				if err := c.Set(setCtx, key, v, ttlJitter(ttl)); err != nil {
					logger.Warn("failed to set cache on miss", zap.String("key", key), zap.Error(err))
				}
			}(value)
		}

		return value, nil
	})
	if err != nil {
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		logger.Error("singleflight type mismatch", zap.String("key", key))
		return zero, fmt.Errorf("type mismatch for key %q", key)
	}

	if shared {
		logger.Debug("singleflight shared result", zap.String("key", key))
	}
	return value, nil
}
