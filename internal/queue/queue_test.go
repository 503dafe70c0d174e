package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
)

func TestPublishWithRetrySucceedsAfterFailure(t *testing.T) {
	q := &MockQueue{}
	event := Event{Type: EventRatingRecorded}

	q.On("Publish", mock.Anything, event).Return(errors.New("down")).Once()
	q.On("Publish", mock.Anything, event).Return(nil).Once()

	err := PublishWithRetry(context.Background(), q, event, 3, time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q.AssertExpectations(t)
}

func TestPublishWithRetryExhausted(t *testing.T) {
	q := &MockQueue{}
	event := Event{Type: EventRatingRecorded}

	q.On("Publish", mock.Anything, event).Return(errors.New("down")).Times(3)

	err := PublishWithRetry(context.Background(), q, event, 3, time.Millisecond)
	if err == nil {
		t.Fatal("expected error after all attempts fail")
	}
	q.AssertExpectations(t)
}

func TestPublishWithRetryContextCancelled(t *testing.T) {
	q := &MockQueue{}
	event := Event{Type: EventRatingRecorded}

	q.On("Publish", mock.Anything, event).Return(errors.New("down")).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := PublishWithRetry(ctx, q, event, 3, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
