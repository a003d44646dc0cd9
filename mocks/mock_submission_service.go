package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"veriform/internal/domain"
	"veriform/internal/service"
)

// MockSubmissionService is a mock implementation of service.SubmissionService.
type MockSubmissionService struct {
	mock.Mock
}

func (m *MockSubmissionService) submission(args mock.Arguments) (*domain.Submission, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Submission), args.Error(1)
}

func (m *MockSubmissionService) CreateDraft(ctx context.Context, input *service.CreateDraftInput) (*domain.Submission, error) {
	return m.submission(m.Called(ctx, input))
}

func (m *MockSubmissionService) SaveDraft(ctx context.Context, input *service.SaveDraftInput) (*domain.Submission, error) {
	return m.submission(m.Called(ctx, input))
}

func (m *MockSubmissionService) SubmitForAnalysis(ctx context.Context, input *service.SubmitInput) (*domain.Submission, error) {
	return m.submission(m.Called(ctx, input))
}

func (m *MockSubmissionService) RetryValidation(ctx context.Context, submissionID uuid.UUID, caller service.Caller) (*domain.Submission, error) {
	return m.submission(m.Called(ctx, submissionID, caller))
}

func (m *MockSubmissionService) CompleteValidation(ctx context.Context, result *domain.ValidationResult) (*domain.Submission, error) {
	return m.submission(m.Called(ctx, result))
}

func (m *MockSubmissionService) Reconcile(ctx context.Context, submissionID uuid.UUID) (*domain.Submission, error) {
	return m.submission(m.Called(ctx, submissionID))
}

func (m *MockSubmissionService) SubmitForReview(ctx context.Context, submissionID uuid.UUID, caller service.Caller) (*domain.Submission, error) {
	return m.submission(m.Called(ctx, submissionID, caller))
}

func (m *MockSubmissionService) SubmitWithoutAI(ctx context.Context, submissionID uuid.UUID, caller service.Caller) (*domain.Submission, error) {
	return m.submission(m.Called(ctx, submissionID, caller))
}

func (m *MockSubmissionService) Review(ctx context.Context, input *service.ReviewInput) (*domain.Submission, *domain.ReviewEvent, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var event *domain.ReviewEvent
	if args.Get(1) != nil {
		event = args.Get(1).(*domain.ReviewEvent)
	}
	return args.Get(0).(*domain.Submission), event, args.Error(2)
}

func (m *MockSubmissionService) Get(ctx context.Context, submissionID uuid.UUID, caller service.Caller) (*domain.Submission, error) {
	return m.submission(m.Called(ctx, submissionID, caller))
}

func (m *MockSubmissionService) GetDetail(ctx context.Context, submissionID uuid.UUID, caller service.Caller) (*domain.SubmissionDetail, error) {
	args := m.Called(ctx, submissionID, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SubmissionDetail), args.Error(1)
}

func (m *MockSubmissionService) GetLatestValidation(ctx context.Context, submissionID uuid.UUID, caller service.Caller) (*domain.ValidationRecord, error) {
	args := m.Called(ctx, submissionID, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValidationRecord), args.Error(1)
}

func (m *MockSubmissionService) ListBySubmitter(ctx context.Context, caller service.Caller, offset, limit int) ([]domain.Submission, int, error) {
	args := m.Called(ctx, caller, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Submission), args.Int(1), args.Error(2)
}

func (m *MockSubmissionService) ListReviewQueue(ctx context.Context, caller service.Caller, offset, limit int) ([]domain.Submission, int, error) {
	args := m.Called(ctx, caller, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Submission), args.Int(1), args.Error(2)
}

func (m *MockSubmissionService) ListReviews(ctx context.Context, submissionID uuid.UUID, caller service.Caller) ([]domain.ReviewEvent, error) {
	args := m.Called(ctx, submissionID, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReviewEvent), args.Error(1)
}
