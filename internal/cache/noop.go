package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing. Used when Redis
// is not configured - all operations succeed but every read is a miss.
type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) GetStats(ctx context.Context) (*GlobalStats, error) {
	return nil, nil
}

func (c *NoOpCache) SetStats(ctx context.Context, stats *GlobalStats, ttl time.Duration) error {
	return nil
}

func (c *NoOpCache) Invalidate(ctx context.Context) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}
