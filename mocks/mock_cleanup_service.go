package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"veriform/internal/service"
)

// MockCleanupService is a mock implementation of service.CleanupService.
type MockCleanupService struct {
	mock.Mock
}

func (m *MockCleanupService) Delete(ctx context.Context, submissionID uuid.UUID, caller service.Caller) (*service.CleanupReport, error) {
	args := m.Called(ctx, submissionID, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CleanupReport), args.Error(1)
}
