package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"veriform/internal/config"
	"veriform/internal/domain"
	"veriform/internal/logger"
	"veriform/internal/port"
)

// AttachmentUploadInput is the DTO for uploading a file to a submission field.
type AttachmentUploadInput struct {
	SubmissionID uuid.UUID
	FieldID      uuid.UUID
	Caller       Caller
	FileName     string
	Size         int64
	Body         io.Reader
}

// AttachmentService manages files attached to submission fields.
type AttachmentService interface {
	Upload(ctx context.Context, input *AttachmentUploadInput) (*domain.Attachment, error)
	PublicURL(ctx context.Context, area, path string) (string, error)
	ListBySubmission(ctx context.Context, submissionID uuid.UUID, caller Caller) ([]domain.Attachment, error)
	Delete(ctx context.Context, attachmentID uuid.UUID, caller Caller) error
}

type attachmentService struct {
	subRepo  port.SubmissionRepository
	formRepo port.FormRepository
	attRepo  port.AttachmentRepository
	storage  port.ObjectStorage
	locator  *AttachmentLocator
	cfg      *config.S3Config
	now      func() time.Time
}

// NewAttachmentService creates a new AttachmentService implementation.
func NewAttachmentService(
	subRepo port.SubmissionRepository,
	formRepo port.FormRepository,
	attRepo port.AttachmentRepository,
	storage port.ObjectStorage,
	locator *AttachmentLocator,
	cfg *config.S3Config,
) AttachmentService {
	return &attachmentService{
		subRepo:  subRepo,
		formRepo: formRepo,
		attRepo:  attRepo,
		storage:  storage,
		locator:  locator,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *attachmentService) draftOwnedBy(ctx context.Context, submissionID uuid.UUID, caller Caller) (*domain.Submission, error) {
	sub, err := s.subRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := caller.requireOwner(sub); err != nil {
		return nil, err
	}
	if sub.Status != domain.SubmissionStatusDraft {
		return nil, &domain.TransitionError{SubmissionID: sub.ID, From: sub.Status, To: domain.SubmissionStatusDraft}
	}
	return sub, nil
}

func (s *attachmentService) Upload(ctx context.Context, input *AttachmentUploadInput) (*domain.Attachment, error) {
	sub, err := s.draftOwnedBy(ctx, input.SubmissionID, input.Caller)
	if err != nil {
		return nil, err
	}

	field, err := s.fileField(ctx, sub.FormID, input.FieldID)
	if err != nil {
		return nil, err
	}

	maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024
	if input.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	// Read first 512 bytes for magic-byte content type detection
	head := make([]byte, 512)
	n, err := io.ReadFull(input.Body, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("reading file header: %w", err)
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	ext, ok := domain.AllowedContentTypes[contentType]
	if !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	now := s.now()
	key := fmt.Sprintf("%s/%s_%d.%s", sub.ID, field.ID, now.UnixMilli(), ext)
	bucket := s.cfg.AttachmentsBucket
	stored := domain.StorageRef{Area: bucket, Path: key}

	logger.Infof("attachmentService.Upload: uploading %s (%s, %d bytes) for submission %s field %s",
		input.FileName, contentType, input.Size, sub.ID, field.ID)

	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      bucket,
		Key:         key,
		Body:        io.MultiReader(bytes.NewReader(head), input.Body),
		ContentType: contentType,
		Size:        input.Size,
	})
	if err != nil {
		logger.Errorf("attachmentService.Upload: storage upload failed for submission %s: %v", sub.ID, err)
		return nil, domain.ErrUploadFailed
	}

	previous, err := s.attRepo.GetBySubmissionAndField(ctx, sub.ID, field.ID)
	if err != nil && !errors.Is(err, domain.ErrAttachmentNotFound) {
		s.discardObject(ctx, stored)
		return nil, err
	}

	uploader := input.Caller.UserID
	att := &domain.Attachment{
		ID:           uuid.New(),
		SubmissionID: sub.ID,
		FieldID:      field.ID,
		StorageArea:  bucket,
		StoragePath:  key,
		FileName:     input.FileName,
		Size:         input.Size,
		MimeType:     contentType,
		UploadedBy:   &uploader,
	}
	if err := s.attRepo.Create(ctx, att); err != nil {
		s.discardObject(ctx, stored)
		return nil, fmt.Errorf("creating attachment: %w", err)
	}

	fileURL, err := s.locator.PublicURL(ctx, bucket, key)
	if err != nil {
		logger.Warnf("attachmentService.Upload: no url for %s: %v", att.ID, err)
	}
	ref := &domain.FileRef{
		Name:   input.FileName,
		URL:    fileURL,
		Path:   key,
		Bucket: bucket,
		Size:   input.Size,
		Type:   contentType,
	}
	if err := s.subRepo.UpdateFileRef(ctx, sub.ID, field.ID, ref); err != nil {
		s.discardObject(ctx, stored)
		if delErr := s.attRepo.Delete(context.WithoutCancel(ctx), att.ID); delErr != nil {
			logger.Warnf("attachmentService.Upload: rolling back row %s: %v", att.ID, delErr)
		}
		return nil, fmt.Errorf("recording file on submission: %w", err)
	}

	if previous != nil {
		s.removeBestEffort(ctx, previous, stored)
	}
	return att, nil
}

// discardObject removes an object written by a failed upload.
func (s *attachmentService) discardObject(ctx context.Context, ref domain.StorageRef) {
	if err := s.storage.Delete(context.WithoutCancel(ctx), ref.Area, ref.Path); err != nil {
		logger.Warnf("attachmentService.Upload: rolling back object %s/%s: %v", ref.Area, ref.Path, err)
	}
}

func (s *attachmentService) fileField(ctx context.Context, formID, fieldID uuid.UUID) (*domain.FormField, error) {
	fields, err := s.formRepo.ListFields(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("loading form fields: %w", err)
	}
	for i := range fields {
		if fields[i].ID == fieldID {
			if !fields[i].IsFile() {
				return nil, domain.ErrInvalidFieldValue
			}
			return &fields[i], nil
		}
	}
	return nil, domain.ErrFieldNotFound
}

// removeBestEffort drops a replaced attachment. The object is kept when it
// is the one just written under the same key.
func (s *attachmentService) removeBestEffort(ctx context.Context, att *domain.Attachment, current domain.StorageRef) {
	if ref, ok := s.locator.Resolve(att); ok && ref != current {
		if err := s.storage.Delete(ctx, ref.Area, ref.Path); err != nil {
			logger.Warnf("attachmentService.removeBestEffort: object %s/%s: %v", ref.Area, ref.Path, err)
			return
		}
	}
	if err := s.attRepo.Delete(ctx, att.ID); err != nil {
		logger.Warnf("attachmentService.removeBestEffort: row %s: %v", att.ID, err)
	}
}

func (s *attachmentService) PublicURL(ctx context.Context, area, path string) (string, error) {
	return s.locator.PublicURL(ctx, area, path)
}

func (s *attachmentService) ListBySubmission(ctx context.Context, submissionID uuid.UUID, caller Caller) ([]domain.Attachment, error) {
	sub, err := s.subRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := caller.requireView(sub); err != nil {
		return nil, err
	}
	return s.attRepo.ListBySubmission(ctx, submissionID)
}

func (s *attachmentService) Delete(ctx context.Context, attachmentID uuid.UUID, caller Caller) error {
	att, err := s.attRepo.GetByID(ctx, attachmentID)
	if err != nil {
		return err
	}
	sub, err := s.draftOwnedBy(ctx, att.SubmissionID, caller)
	if err != nil {
		return err
	}

	logger.Infof("attachmentService.Delete: deleting attachment %s from submission %s", att.ID, sub.ID)

	if ref, ok := s.locator.Resolve(att); ok {
		if err := s.storage.Delete(ctx, ref.Area, ref.Path); err != nil {
			return fmt.Errorf("deleting from storage: %w", err)
		}
	}
	if err := s.attRepo.Delete(ctx, att.ID); err != nil {
		return err
	}

	// A newer upload on the same field keeps its descriptor.
	if ref, ok := sub.Files[att.FieldID.String()]; ok && (ref.Path == "" || ref.Path == att.StoragePath) {
		if err := s.subRepo.UpdateFileRef(ctx, sub.ID, att.FieldID, nil); err != nil {
			return fmt.Errorf("clearing file on submission: %w", err)
		}
	}
	return nil
}
