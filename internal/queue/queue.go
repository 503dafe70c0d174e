package queue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ratebot/internal/retry"
)

// EventType enumerates supported event categories.
type EventType string

const EventRatingRecorded EventType = "rating_recorded"

// Event is one domain event shared between the bot and the stats service.
type Event struct {
	ID          uuid.UUID
	Type        EventType
	Payload     []byte
	Attempts    int
	MaxAttempts int
	NotBefore   time.Time
}

// RatingRecorded is the payload of an EventRatingRecorded event.
type RatingRecorded struct {
	RecordID int64  `json:"record_id"`
	UserID   int64  `json:"user_id"`
	Model    string `json:"model"`
	Rating   int    `json:"rating"`
}

type Handler func(context.Context, Event) error

// Queue exposes a minimal contract to publish and consume events.
type Queue interface {
	Publish(ctx context.Context, event Event) error
	Worker(ctx context.Context, eventType EventType, handler Handler) error
	Close() error
}

// PublishWithRetry attempts to publish with retries and exponential backoff.
func PublishWithRetry(ctx context.Context, q Queue, event Event, attempts int, base time.Duration) error {
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if err := q.Publish(ctx, event); err == nil {
			return nil
		} else if attempt == attempts-1 {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry.ExponentialBackoff(attempt, base, 0)):
		}
	}
	return nil
}
