package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"veriform/internal/domain"
)

// MockSubmissionRepo is a mock implementation of port.SubmissionRepository.
type MockSubmissionRepo struct {
	mock.Mock
}

func (m *MockSubmissionRepo) Create(ctx context.Context, sub *domain.Submission) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubmissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Submission), args.Error(1)
}

func (m *MockSubmissionRepo) ListBySubmitter(ctx context.Context, userID uuid.UUID, offset, limit int) ([]domain.Submission, int, error) {
	args := m.Called(ctx, userID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Submission), args.Int(1), args.Error(2)
}

func (m *MockSubmissionRepo) ListByStatus(ctx context.Context, status domain.SubmissionStatus, offset, limit int) ([]domain.Submission, int, error) {
	args := m.Called(ctx, status, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Submission), args.Int(1), args.Error(2)
}

func (m *MockSubmissionRepo) UpdateValues(ctx context.Context, sub *domain.Submission) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubmissionRepo) UpdateFileRef(ctx context.Context, submissionID, fieldID uuid.UUID, ref *domain.FileRef) error {
	args := m.Called(ctx, submissionID, fieldID, ref)
	return args.Error(0)
}

func (m *MockSubmissionRepo) UpdateStatus(ctx context.Context, sub *domain.Submission, from domain.SubmissionStatus) error {
	args := m.Called(ctx, sub, from)
	return args.Error(0)
}

func (m *MockSubmissionRepo) BeginValidation(ctx context.Context, sub *domain.Submission, rec *domain.ValidationRecord) error {
	args := m.Called(ctx, sub, rec)
	return args.Error(0)
}

func (m *MockSubmissionRepo) RestartValidation(ctx context.Context, sub *domain.Submission, rec *domain.ValidationRecord) error {
	args := m.Called(ctx, sub, rec)
	return args.Error(0)
}

func (m *MockSubmissionRepo) ResolveValidation(ctx context.Context, sub *domain.Submission, from domain.SubmissionStatus, rec *domain.ValidationRecord) error {
	args := m.Called(ctx, sub, from, rec)
	return args.Error(0)
}

func (m *MockSubmissionRepo) AppendReview(ctx context.Context, sub *domain.Submission, event *domain.ReviewEvent) error {
	args := m.Called(ctx, sub, event)
	return args.Error(0)
}

func (m *MockSubmissionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
