package cache

import (
	"context"
	"time"

	"ratebot/internal/charts"
)

// GlobalStats is the cached, user-independent part of a stats report.
// Per-user figures are always computed live.
type GlobalStats struct {
	TotalCount int64             `json:"total_count"`
	TotalAvg   float64           `json:"total_avg"`
	Artifacts  []charts.Artifact `json:"artifacts"`
}

// Cache provides stats report caching.
type Cache interface {
	// GetStats retrieves the cached global stats.
	// Returns nil if not found.
	GetStats(ctx context.Context) (*GlobalStats, error)

	// SetStats stores the global stats with TTL.
	SetStats(ctx context.Context, stats *GlobalStats, ttl time.Duration) error

	// Invalidate drops the cached stats; called whenever a new rating
	// is recorded.
	Invalidate(ctx context.Context) error

	// Close closes the cache connection.
	Close() error
}
