// Package cache provides the redis-backed response cache that cache
// warming populates and the message processor consults.
// This package is internal and should not be imported by external projects.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hirecj/agentsim/config"
)

// Manager wraps the redis client behind the narrow surface the core needs:
// get/set of warmed responses keyed by (universe, workflow).
type Manager struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewManager connects to redis and verifies the connection. The caller
// decides whether a connection failure is fatal; the warming path treats
// the cache as optional.
func NewManager(cfg config.RedisConfig, logger *zap.Logger) (*Manager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = config.DefaultRedisConfig().DefaultTTL
	}

	logger = logger.With(zap.String("component", "cache"))
	logger.Info("response cache connected", zap.String("addr", cfg.Addr))

	return &Manager{redis: client, ttl: ttl, logger: logger}, nil
}

// responseKey builds the cache key for a warmed (universe, workflow) pair.
func responseKey(universeID, workflowID string) string {
	return fmt.Sprintf("warm:%s:%s", universeID, workflowID)
}

// GetResponse returns the cached response for the pair, with ok=false on a
// clean miss. Transport failures are errors.
func (m *Manager) GetResponse(ctx context.Context, universeID, workflowID string) (string, bool, error) {
	val, err := m.redis.Get(ctx, responseKey(universeID, workflowID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get failed: %w", err)
	}
	return val, true, nil
}

// SetResponse stores a response for the pair under the configured TTL.
func (m *Manager) SetResponse(ctx context.Context, universeID, workflowID, response string) error {
	key := responseKey(universeID, workflowID)
	if err := m.redis.Set(ctx, key, response, m.ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	m.logger.Debug("response cached", zap.String("key", key), zap.Int("bytes", len(response)))
	return nil
}

// Close releases the redis client.
func (m *Manager) Close() error {
	return m.redis.Close()
}
