package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCleanupRepo is a mock implementation of port.CleanupRepository.
type MockCleanupRepo struct {
	mock.Mock
}

func (m *MockCleanupRepo) DeleteDocumentValidations(ctx context.Context, submissionID uuid.UUID) error {
	args := m.Called(ctx, submissionID)
	return args.Error(0)
}

func (m *MockCleanupRepo) CallDeleteProcedure(ctx context.Context, submissionID uuid.UUID) error {
	args := m.Called(ctx, submissionID)
	return args.Error(0)
}
