package queue

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockQueue is a mock implementation of Queue using testify/mock.
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Publish(ctx context.Context, event Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockQueue) Worker(ctx context.Context, eventType EventType, handler Handler) error {
	args := m.Called(ctx, eventType, handler)
	return args.Error(0)
}

func (m *MockQueue) Close() error {
	args := m.Called()
	return args.Error(0)
}
