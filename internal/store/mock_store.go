package store

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Append(ctx context.Context, r Rating) (Rating, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(Rating), args.Error(1)
}

func (m *MockStore) Count(ctx context.Context, f Filter) (int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) Average(ctx context.Context, f Filter) (float64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockStore) List(ctx context.Context) ([]Rating, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Rating), args.Error(1)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
