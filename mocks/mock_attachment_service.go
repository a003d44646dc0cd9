package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"veriform/internal/domain"
	"veriform/internal/service"
)

// MockAttachmentService is a mock implementation of service.AttachmentService.
type MockAttachmentService struct {
	mock.Mock
}

func (m *MockAttachmentService) Upload(ctx context.Context, input *service.AttachmentUploadInput) (*domain.Attachment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attachment), args.Error(1)
}

func (m *MockAttachmentService) PublicURL(ctx context.Context, area, path string) (string, error) {
	args := m.Called(ctx, area, path)
	return args.String(0), args.Error(1)
}

func (m *MockAttachmentService) ListBySubmission(ctx context.Context, submissionID uuid.UUID, caller service.Caller) ([]domain.Attachment, error) {
	args := m.Called(ctx, submissionID, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Attachment), args.Error(1)
}

func (m *MockAttachmentService) Delete(ctx context.Context, attachmentID uuid.UUID, caller service.Caller) error {
	args := m.Called(ctx, attachmentID, caller)
	return args.Error(0)
}
