package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"veriform/internal/domain"
)

// MockFormRepo is a mock implementation of port.FormRepository.
type MockFormRepo struct {
	mock.Mock
}

func (m *MockFormRepo) GetByID(ctx context.Context, formID uuid.UUID) (*domain.Form, error) {
	args := m.Called(ctx, formID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Form), args.Error(1)
}

func (m *MockFormRepo) ListFields(ctx context.Context, formID uuid.UUID) ([]domain.FormField, error) {
	args := m.Called(ctx, formID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FormField), args.Error(1)
}
