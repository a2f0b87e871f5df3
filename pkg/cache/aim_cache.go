package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/fairway-labs/caddie-engine/internal/types"
)

// AimCacheService handles caching for aim-point optimization results. Results
// are keyed by a digest of the request, so identical seeded requests hit the
// cache regardless of who sends them.
type AimCacheService struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewAimCacheService creates a new aim cache service
func NewAimCacheService(client *redis.Client, logger *logrus.Logger) *AimCacheService {
	return &AimCacheService{
		client: client,
		logger: logger,
	}
}

// SetAimResult stores an optimization result in cache
func (c *AimCacheService) SetAimResult(ctx context.Context, key string, result *types.OptimizeResponse, expiration time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal aim result: %w", err)
	}

	fullKey := fmt.Sprintf("aim:%s", key)
	if err := c.client.Set(ctx, fullKey, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set aim result in cache: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key":  fullKey,
		"expiration": expiration,
		"candidates": len(result.Candidates),
	}).Debug("Cached aim result")

	return nil
}

// GetAimResult retrieves an optimization result from cache
func (c *AimCacheService) GetAimResult(ctx context.Context, key string) (*types.OptimizeResponse, error) {
	fullKey := fmt.Sprintf("aim:%s", key)
	data, err := c.client.Get(ctx, fullKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("aim result not found in cache")
		}
		return nil, fmt.Errorf("failed to get aim result from cache: %w", err)
	}

	var result types.OptimizeResponse
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal aim result: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key":  fullKey,
		"candidates": len(result.Candidates),
	}).Debug("Retrieved aim result from cache")

	return &result, nil
}

// DeleteAimResult removes an optimization result from cache
func (c *AimCacheService) DeleteAimResult(ctx context.Context, key string) error {
	fullKey := fmt.Sprintf("aim:%s", key)
	if err := c.client.Del(ctx, fullKey).Err(); err != nil {
		return fmt.Errorf("failed to delete aim result from cache: %w", err)
	}
	return nil
}

// HealthCheck verifies the cache connection
func (c *AimCacheService) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
