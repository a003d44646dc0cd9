package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"veriform/internal/port"
)

// MockDispatcher is a mock implementation of service.Dispatcher.
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) BuildRequest(ctx context.Context, submissionID uuid.UUID) (*port.ValidationRequest, error) {
	args := m.Called(ctx, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ValidationRequest), args.Error(1)
}

func (m *MockDispatcher) Dispatch(ctx context.Context, submissionID uuid.UUID) error {
	args := m.Called(ctx, submissionID)
	return args.Error(0)
}
