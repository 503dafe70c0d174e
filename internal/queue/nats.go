package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"ratebot/internal/retry"
)

// NewNATS constructs a thin NATS-based event queue.
func NewNATS(log *slog.Logger, nc *nats.Conn) Queue {
	return &natsQueue{log: log, nc: nc}
}

type natsQueue struct {
	log *slog.Logger
	nc  *nats.Conn
}

func (q *natsQueue) Publish(_ context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Type == "" {
		return errors.New("event type required")
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return q.nc.Publish("events."+string(event.Type), body)
}

func (q *natsQueue) Worker(ctx context.Context, eventType EventType, handler Handler) error {
	subject := "events." + string(eventType)
	group := "workers-" + string(eventType)
	sub, err := q.nc.QueueSubscribe(subject, group, func(msg *nats.Msg) {
		q.handleMessage(ctx, msg, handler)
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	return sub.Unsubscribe()
}

func (q *natsQueue) Close() error {
	q.nc.Close()
	return nil
}

func (q *natsQueue) handleMessage(ctx context.Context, msg *nats.Msg, handler Handler) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		q.log.Error("failed to decode event", "err", err)
		return
	}

	if event.NotBefore.After(time.Now()) {
		time.Sleep(time.Until(event.NotBefore))
	}

	if err := handler(ctx, event); err != nil {
		q.retryEvent(ctx, event, err)
	}
}

func (q *natsQueue) retryEvent(ctx context.Context, event Event, handlerErr error) {
	event.Attempts++
	if event.MaxAttempts == 0 {
		event.MaxAttempts = 5
	}

	if event.Attempts < event.MaxAttempts {
		event.NotBefore = time.Now().Add(retry.ExponentialBackoff(event.Attempts, time.Second, 0))
		if err := q.Publish(ctx, event); err != nil {
			q.log.Error("failed to republish event after failure", "id", event.ID, "type", event.Type, "original_err", handlerErr, "publish_err", err)
		}
	} else {
		q.log.Error("event permanently failed", "id", event.ID, "type", event.Type, "original_err", handlerErr)
	}
}
