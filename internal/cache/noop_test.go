package cache

import (
	"context"
	"testing"
	"time"
)

func TestNoOpCache(t *testing.T) {
	c := NewNoOpCache()
	ctx := context.Background()

	stats, err := c.GetStats(ctx)
	if err != nil || stats != nil {
		t.Errorf("expected miss without error, got %v, %v", stats, err)
	}

	if err := c.SetStats(ctx, &GlobalStats{TotalCount: 3, TotalAvg: 1.5}, time.Minute); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// Still a miss after Set.
	stats, err = c.GetStats(ctx)
	if err != nil || stats != nil {
		t.Errorf("expected miss after set, got %v, %v", stats, err)
	}

	if err := c.Invalidate(ctx); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
