package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"veriform/internal/domain"
)

// MockValidationRepo is a mock implementation of port.ValidationRepository.
type MockValidationRepo struct {
	mock.Mock
}

func (m *MockValidationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ValidationRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValidationRecord), args.Error(1)
}

func (m *MockValidationRepo) GetLatestBySubmission(ctx context.Context, submissionID uuid.UUID) (*domain.ValidationRecord, error) {
	args := m.Called(ctx, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValidationRecord), args.Error(1)
}

func (m *MockValidationRepo) ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]domain.ValidationRecord, error) {
	args := m.Called(ctx, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ValidationRecord), args.Error(1)
}

func (m *MockValidationRepo) ListStalePending(ctx context.Context, before time.Time, limit int) ([]domain.ValidationRecord, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ValidationRecord), args.Error(1)
}

func (m *MockValidationRepo) Update(ctx context.Context, rec *domain.ValidationRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockValidationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockValidationRepo) AppendLog(ctx context.Context, entry *domain.ValidationLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockValidationRepo) ListLogs(ctx context.Context, validationID uuid.UUID) ([]domain.ValidationLog, error) {
	args := m.Called(ctx, validationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ValidationLog), args.Error(1)
}

func (m *MockValidationRepo) DeleteLogs(ctx context.Context, validationID uuid.UUID) error {
	args := m.Called(ctx, validationID)
	return args.Error(0)
}
