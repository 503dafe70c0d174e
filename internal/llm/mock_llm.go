package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockProvider is a mock implementation of Provider using testify/mock.
type MockProvider struct {
	mock.Mock

	ProviderKey  Key
	ProviderName string
}

func (m *MockProvider) Key() Key {
	return m.ProviderKey
}

func (m *MockProvider) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return string(m.ProviderKey)
}

func (m *MockProvider) Generate(ctx context.Context, question string) (string, error) {
	args := m.Called(ctx, question)
	return args.String(0), args.Error(1)
}
