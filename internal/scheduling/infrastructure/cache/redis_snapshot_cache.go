// Package cache holds the hot snapshot cache in front of the availability
// calculator.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

const keyPrefix = "slotwise:availability:"

// Config configures the Redis snapshot cache.
type Config struct {
	// TTL bounds how long a snapshot is served. Zero keeps it until invalidated.
	TTL time.Duration

	// FailureThreshold trips the breaker after this many consecutive failures.
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open before probing Redis again.
	OpenTimeout time.Duration
}

// DefaultConfig returns the cache defaults.
func DefaultConfig() Config {
	return Config{
		TTL:              15 * time.Minute,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// RedisSnapshotCache implements domain.SnapshotCache on Redis. Calls go
// through a circuit breaker so an unavailable Redis costs one fast error
// instead of a network timeout per request.
type RedisSnapshotCache struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	ttl     time.Duration
	logger  *slog.Logger
}

// NewRedisSnapshotCache creates a snapshot cache on client.
func NewRedisSnapshotCache(client *redis.Client, cfg Config, logger *slog.Logger) *RedisSnapshotCache {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultConfig().OpenTimeout
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "snapshot-cache",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &RedisSnapshotCache{client: client, breaker: breaker, ttl: cfg.TTL, logger: logger}
}

// Key returns the Redis key of a snapshot.
func Key(k domain.SnapshotKey) string {
	return keyPrefix + k.ProfessionalID.String() + ":" + k.Date.String()
}

// Get returns the cached snapshot, or nil on a miss.
func (c *RedisSnapshotCache) Get(ctx context.Context, key domain.SnapshotKey) (*domain.Snapshot, error) {
	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.client.Get(ctx, Key(key)).Bytes()
	})
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot cache: %w", err)
	}

	var s domain.Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		c.logger.WarnContext(ctx, "dropping undecodable snapshot", "key", Key(key), "error", err)
		_ = c.Invalidate(ctx, key)
		return nil, nil
	}
	return &s, nil
}

// Set stores s under its key.
func (c *RedisSnapshotCache) Set(ctx context.Context, s *domain.Snapshot) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err = c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Set(ctx, Key(s.Key()), raw, c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to write snapshot cache: %w", err)
	}
	return nil
}

// Invalidate deletes the snapshots for keys.
func (c *RedisSnapshotCache) Invalidate(ctx context.Context, keys ...domain.SnapshotKey) error {
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = Key(k)
	}
	_, err := c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Del(ctx, names...).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate snapshot cache: %w", err)
	}
	return nil
}

// State reports the breaker state for health checks.
func (c *RedisSnapshotCache) State() gobreaker.State {
	return c.breaker.State()
}
