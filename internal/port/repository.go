package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"veriform/internal/domain"
)

// FormRepository reads form definitions. Forms are authored elsewhere.
type FormRepository interface {
	GetByID(ctx context.Context, formID uuid.UUID) (*domain.Form, error)
	ListFields(ctx context.Context, formID uuid.UUID) ([]domain.FormField, error)
}

// SubmissionRepository defines the contract for submission persistence.
//
// Status-changing methods are compare-and-set: they only apply when the stored
// status still equals from, and return domain.ErrStatusConflict otherwise.
// Methods that also touch a validation record do so in one transaction.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *domain.Submission) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error)
	ListBySubmitter(ctx context.Context, userID uuid.UUID, offset, limit int) ([]domain.Submission, int, error)
	ListByStatus(ctx context.Context, status domain.SubmissionStatus, offset, limit int) ([]domain.Submission, int, error)
	// UpdateValues writes the field values of a DRAFT submission. Files are
	// left alone.
	UpdateValues(ctx context.Context, sub *domain.Submission) error
	// UpdateFileRef sets the file descriptor of one field on a DRAFT
	// submission, or removes it when ref is nil.
	UpdateFileRef(ctx context.Context, submissionID, fieldID uuid.UUID, ref *domain.FileRef) error
	UpdateStatus(ctx context.Context, sub *domain.Submission, from domain.SubmissionStatus) error

	// BeginValidation persists values, moves the submission from DRAFT to
	// PENDING_AI_VALIDATION, inserts rec and links it as the active record.
	BeginValidation(ctx context.Context, sub *domain.Submission, rec *domain.ValidationRecord) error
	// RestartValidation moves AI_VALIDATION_FAILED back to PENDING_AI_VALIDATION
	// and stores the reset record.
	RestartValidation(ctx context.Context, sub *domain.Submission, rec *domain.ValidationRecord) error
	// ResolveValidation stores rec and moves the submission from from to sub.Status.
	ResolveValidation(ctx context.Context, sub *domain.Submission, from domain.SubmissionStatus, rec *domain.ValidationRecord) error
	// AppendReview inserts event and moves the submission from SUBMITTED to sub.Status.
	AppendReview(ctx context.Context, sub *domain.Submission, event *domain.ReviewEvent) error

	// Delete removes the row. A missing row is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ValidationRepository defines the contract for AI validation records and their logs.
type ValidationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ValidationRecord, error)
	GetLatestBySubmission(ctx context.Context, submissionID uuid.UUID) (*domain.ValidationRecord, error)
	ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]domain.ValidationRecord, error)
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]domain.ValidationRecord, error)
	Update(ctx context.Context, rec *domain.ValidationRecord) error
	Delete(ctx context.Context, id uuid.UUID) error

	AppendLog(ctx context.Context, entry *domain.ValidationLog) error
	ListLogs(ctx context.Context, validationID uuid.UUID) ([]domain.ValidationLog, error)
	DeleteLogs(ctx context.Context, validationID uuid.UUID) error
}

// AttachmentRepository defines the contract for attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, att *domain.Attachment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error)
	GetBySubmissionAndField(ctx context.Context, submissionID, fieldID uuid.UUID) (*domain.Attachment, error)
	ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]domain.Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReviewRepository reads the review history. Events are written through
// SubmissionRepository.AppendReview.
type ReviewRepository interface {
	ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]domain.ReviewEvent, error)
}

// CleanupRepository holds the deletes that have no other owner.
type CleanupRepository interface {
	DeleteDocumentValidations(ctx context.Context, submissionID uuid.UUID) error
	// CallDeleteProcedure runs the server-side cascade. It returns
	// domain.ErrProcedureUnavailable when the procedure is not installed.
	CallDeleteProcedure(ctx context.Context, submissionID uuid.UUID) error
}
