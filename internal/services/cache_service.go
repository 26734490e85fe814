package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"raddiwala/pkg/cache"
	"raddiwala/pkg/logger"
)

// CacheService is the application's view of Redis: namespaced JSON values for
// read-through caches and fixed-window counters for rate limiting.
type CacheService interface {
	// Basic cache operations
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// Rate limiting
	CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)

	// Health
	Ping(ctx context.Context) error
}

// RedisClient is satisfied by cache.RedisCache.
type RedisClient interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	IncrementWithin(ctx context.Context, key string, window time.Duration) (int64, error)
	Ping(ctx context.Context) error
}

type RateLimitResult struct {
	Allowed   bool  `json:"allowed"`
	Count     int64 `json:"count"`
	Remaining int64 `json:"remaining"`
}

type cacheService struct {
	redisClient RedisClient
	logger      *logger.Logger
	defaultTTL  time.Duration
	keyPrefix   string
}

func NewCacheService(redisClient RedisClient, logger *logger.Logger, keyPrefix string, defaultTTL time.Duration) CacheService {
	return &cacheService{
		redisClient: redisClient,
		logger:      logger,
		keyPrefix:   keyPrefix,
		defaultTTL:  defaultTTL,
	}
}

// Get returns cache.ErrCacheMiss unwrapped so callers can tell a miss from an outage.
func (s *cacheService) Get(ctx context.Context, key string, dest interface{}) error {
	if err := s.redisClient.Get(ctx, s.buildKey(key), dest); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return err
		}
		return fmt.Errorf("failed to get cache key %s: %w", key, err)
	}

	s.logger.WithField("cache_key", key).Debug("Cache hit")
	return nil
}

func (s *cacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if expiration == 0 {
		expiration = s.defaultTTL
	}

	if err := s.redisClient.Set(ctx, s.buildKey(key), value, expiration); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}

	s.logger.WithField("cache_key", key).
		WithField("expiration", expiration).
		Debug("Cache set")
	return nil
}

func (s *cacheService) Delete(ctx context.Context, keys ...string) error {
	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = s.buildKey(key)
	}

	if err := s.redisClient.Delete(ctx, fullKeys...); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}

	s.logger.WithField("cache_keys", keys).Debug("Cache keys deleted")
	return nil
}

// CheckRateLimit counts one event against key. The window opens at the first event.
func (s *cacheService) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error) {
	count, err := s.redisClient.IncrementWithin(ctx, s.buildKey("rate_limit:"+key), window)
	if err != nil {
		return nil, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return &RateLimitResult{
		Allowed:   count <= limit,
		Count:     count,
		Remaining: remaining,
	}, nil
}

func (s *cacheService) Ping(ctx context.Context) error {
	return s.redisClient.Ping(ctx)
}

func (s *cacheService) buildKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}
