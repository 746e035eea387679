package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"karma_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/redis/go-redis/v9"
)

const cacheMaxRetries = 3

// NewRedisClient builds a pooled client from the cache configuration
func NewRedisClient(cfg *structs.CacheConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize: cfg.PoolSize,

		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
}

// CacheService provides Redis access with retry logic. It backs user sessions
// and rate limit counters.
type CacheService struct {
	logger *gecho.Logger
	client *redis.Client
}

func NewCacheService(logger *gecho.Logger, client *redis.Client) *CacheService {
	return &CacheService{
		logger: logger,
		client: client,
	}
}

// Close closes the Redis connection pool
func (cs *CacheService) Close() error {
	return cs.client.Close()
}

// withRetry executes a Redis operation with exponential backoff and jitter
func (cs *CacheService) withRetry(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= cacheMaxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == cacheMaxRetries || !isRetryableCacheError(err) {
			break
		}

		backoff := min(100*time.Millisecond<<attempt, 2*time.Second)
		// ±50% jitter
		sleep := backoff/2 + time.Duration(rand.Int64N(int64(backoff/2)+1))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}

	return fmt.Errorf("redis operation failed: %w", lastErr)
}

// isRetryableCacheError retries network failures, never a missing key
func isRetryableCacheError(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}

	errStr := err.Error()
	for _, retryable := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"broken pipe",
		"no such host",
		"network is unreachable",
	} {
		if strings.Contains(errStr, retryable) {
			return true
		}
	}
	return false
}

// Set sets a key with TTL
func (cs *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return cs.withRetry(ctx, func() error {
		return cs.client.Set(ctx, key, value, ttl).Err()
	})
}

// Get retrieves a key; a missing key yields an empty string and no error
func (cs *CacheService) Get(ctx context.Context, key string) (string, error) {
	var result string
	err := cs.withRetry(ctx, func() error {
		val, err := cs.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			result = ""
			return nil
		}
		if err != nil {
			return err
		}
		result = val
		return nil
	})
	return result, err
}

// Delete removes a key
func (cs *CacheService) Delete(ctx context.Context, key string) error {
	return cs.withRetry(ctx, func() error {
		return cs.client.Del(ctx, key).Err()
	})
}

// Exists checks if a key exists
func (cs *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	var result bool
	err := cs.withRetry(ctx, func() error {
		count, err := cs.client.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		result = count > 0
		return nil
	})
	return result, err
}

// IncrementRateLimit atomically increments the counter for subject within scope.
// The window starts with the first hit.
func (cs *CacheService) IncrementRateLimit(ctx context.Context, subject, scope string, window time.Duration) (int, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", scope, subject)

	var result int64
	err := cs.withRetry(ctx, func() error {
		val, err := cs.client.Incr(ctx, key).Result()
		if err != nil {
			return err
		}
		result = val

		if val == 1 {
			return cs.client.Expire(ctx, key, window).Err()
		}
		return nil
	})

	return int(result), err
}

// Ping tests the Redis connection
func (cs *CacheService) Ping(ctx context.Context) error {
	return cs.withRetry(ctx, func() error {
		return cs.client.Ping(ctx).Err()
	})
}

// GetConnectionStats returns Redis connection pool statistics
func (cs *CacheService) GetConnectionStats() map[string]any {
	stats := cs.client.PoolStats()
	return map[string]any{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}

func setJSON[T any](ctx context.Context, cs *CacheService, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return cs.Set(ctx, key, data, ttl)
}

func getJSON[T any](ctx context.Context, cs *CacheService, key string) (*T, error) {
	val, err := cs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if val == "" {
		return nil, nil
	}

	var result T
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
