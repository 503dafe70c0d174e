// Package stats computes the aggregate rating report: counts, averages,
// and chart artifacts, with a cached global part and live per-user figures.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"ratebot/internal/cache"
	"ratebot/internal/charts"
	"ratebot/internal/queue"
	"ratebot/internal/store"
)

const topBottomN = 5

// Report is one rendered stats view, scoped to a requesting user.
type Report struct {
	TotalCount int64
	TotalAvg   float64
	UserCount  int64
	UserAvg    float64
	Artifacts  []charts.Artifact
}

// Text formats the report message. Rounding to 2 decimal places happens
// here, at the presentation boundary, not in the store.
func (r Report) Text() string {
	return fmt.Sprintf(
		"Total ratings: %d\nAverage rating: %.2f\n\nYour ratings: %d\nYour average rating: %.2f",
		r.TotalCount, r.TotalAvg, r.UserCount, r.UserAvg,
	)
}

// HasData reports whether any ratings exist at all.
func (r Report) HasData() bool { return r.TotalCount > 0 }

// Builder assembles reports and keeps the cached global part fresh via
// rating-recorded events.
type Builder struct {
	log   *slog.Logger
	store store.Store
	cache cache.Cache
	queue queue.Queue // nil when no queue is configured
	names map[string]string
	ttl   time.Duration

	retryBase time.Duration
}

func NewBuilder(log *slog.Logger, st store.Store, c cache.Cache, q queue.Queue, names map[string]string, ttl time.Duration) *Builder {
	return &Builder{log: log, store: st, cache: c, queue: q, names: names, ttl: ttl, retryBase: time.Second}
}

// Report builds the stats view for one user. The global aggregates and
// artifacts come from cache when fresh; per-user figures are always live.
func (b *Builder) Report(ctx context.Context, userID int64) (Report, error) {
	global, err := b.globalStats(ctx)
	if err != nil {
		return Report{}, err
	}

	uid := userID
	userCount, err := b.store.Count(ctx, store.Filter{UserID: &uid})
	if err != nil {
		return Report{}, fmt.Errorf("failed to count user ratings: %w", err)
	}
	userAvg, err := b.store.Average(ctx, store.Filter{UserID: &uid})
	if err != nil {
		return Report{}, fmt.Errorf("failed to average user ratings: %w", err)
	}

	return Report{
		TotalCount: global.TotalCount,
		TotalAvg:   global.TotalAvg,
		UserCount:  userCount,
		UserAvg:    userAvg,
		Artifacts:  global.Artifacts,
	}, nil
}

func (b *Builder) globalStats(ctx context.Context) (*cache.GlobalStats, error) {
	if cached, err := b.cache.GetStats(ctx); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		b.log.Warn("stats cache read failed", "err", err)
	}

	total, err := b.store.Count(ctx, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to count ratings: %w", err)
	}
	avg, err := b.store.Average(ctx, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to average ratings: %w", err)
	}
	records, err := b.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot ratings: %w", err)
	}

	stats := &cache.GlobalStats{
		TotalCount: total,
		TotalAvg:   avg,
		Artifacts:  b.renderArtifacts(records),
	}

	if err := b.cache.SetStats(ctx, stats, b.ttl); err != nil {
		// Cache write failure degrades to recomputing next time.
		b.log.Warn("stats cache write failed", "err", err)
	}
	return stats, nil
}

// renderArtifacts draws the charts concurrently. A failed artifact is
// logged and dropped; it never fails the report.
func (b *Builder) renderArtifacts(records []store.Rating) []charts.Artifact {
	if len(records) == 0 {
		return nil
	}

	var (
		dist   charts.Artifact
		avgs   charts.Artifact
		tables []charts.Artifact
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		dist, err = charts.RatingDistribution(records, b.names)
		return err
	})
	g.Go(func() error {
		var err error
		avgs, err = charts.AverageByModel(records, b.names)
		return err
	})
	g.Go(func() error {
		var err error
		tables, err = charts.TopBottomTables(records, b.names, topBottomN)
		return err
	})
	if err := g.Wait(); err != nil {
		b.log.Error("chart rendering failed", "err", err)
	}

	var out []charts.Artifact
	if len(dist.PNG) > 0 {
		out = append(out, dist)
	}
	if len(avgs.PNG) > 0 {
		out = append(out, avgs)
	}
	out = append(out, tables...)
	return out
}

// RatingRecorded reacts to a freshly stored rating: the cached global
// report is stale now. With a queue configured the event goes to every
// interested worker; without one the cache is invalidated directly.
func (b *Builder) RatingRecorded(ctx context.Context, r store.Rating) {
	if b.queue == nil {
		if err := b.cache.Invalidate(ctx); err != nil {
			b.log.Warn("stats cache invalidation failed", "err", err)
		}
		return
	}

	payload, err := json.Marshal(queue.RatingRecorded{
		RecordID: r.ID,
		UserID:   r.UserID,
		Model:    r.Model,
		Rating:   r.Rating,
	})
	if err != nil {
		b.log.Error("failed to marshal rating event", "err", err)
		return
	}
	event := queue.Event{Type: queue.EventRatingRecorded, Payload: payload}
	if err := queue.PublishWithRetry(ctx, b.queue, event, 3, b.retryBase); err != nil {
		b.log.Error("failed to publish rating event; invalidating directly", "err", err)
		if err := b.cache.Invalidate(ctx); err != nil {
			b.log.Warn("stats cache invalidation failed", "err", err)
		}
	}
}

// RunInvalidator consumes rating-recorded events and drops the cached
// report. Blocks until ctx is done. A nil queue just waits.
func (b *Builder) RunInvalidator(ctx context.Context) error {
	if b.queue == nil {
		<-ctx.Done()
		return nil
	}
	return b.queue.Worker(ctx, queue.EventRatingRecorded, func(ctx context.Context, event queue.Event) error {
		var payload queue.RatingRecorded
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			b.log.Error("failed to decode rating event", "err", err)
			return nil // malformed events are not retried
		}
		b.log.Debug("invalidating stats cache", "record_id", payload.RecordID, "model", payload.Model)
		if err := b.cache.Invalidate(ctx); err != nil {
			return fmt.Errorf("failed to invalidate stats cache: %w", err)
		}
		return nil
	})
}
