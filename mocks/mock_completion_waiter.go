package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"veriform/internal/service"
)

// MockCompletionWaiter is a mock implementation of service.CompletionWaiter.
type MockCompletionWaiter struct {
	mock.Mock
}

func (m *MockCompletionWaiter) Wait(ctx context.Context, submissionID uuid.UUID) (service.PollOutcome, error) {
	args := m.Called(ctx, submissionID)
	return args.Get(0).(service.PollOutcome), args.Error(1)
}
