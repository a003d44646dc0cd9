package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound               = errors.New("resource not found")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
	ErrSubmissionNotFound     = errors.New("submission not found")
	ErrValidationNotFound     = errors.New("validation record not found")
	ErrAttachmentNotFound     = errors.New("attachment not found")
	ErrFormNotFound           = errors.New("form not found")
	ErrFieldNotFound          = errors.New("form field not found")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrStatusConflict         = errors.New("submission status changed concurrently")
	ErrRequiredFieldsMissing  = errors.New("required fields are missing")
	ErrInvalidFieldValue      = errors.New("field values must be strings or booleans")
	ErrInvalidDecision        = errors.New("review decision must be APPROVED or REJECTED")
	ErrInvalidValidationState = errors.New("validation result is malformed")
	ErrUnsupportedFileType    = errors.New("unsupported file type")
	ErrFileTooLarge           = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed           = errors.New("file upload to storage failed")
	ErrStorageRefUnresolvable = errors.New("attachment storage location could not be resolved")
	ErrCleanupFatal           = errors.New("submission row could not be deleted")
	ErrProcedureUnavailable   = errors.New("server-side procedure unavailable")
)

// TransitionError reports an attempted move the state machine does not allow.
type TransitionError struct {
	SubmissionID uuid.UUID
	From         SubmissionStatus
	To           SubmissionStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("submission %s: cannot move from %s to %s", e.SubmissionID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// MissingFieldsError lists the required fields that have no value.
type MissingFieldsError struct {
	FieldIDs []uuid.UUID
	Labels   []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("required fields missing: %s", strings.Join(e.Labels, ", "))
}

func (e *MissingFieldsError) Unwrap() error {
	return ErrRequiredFieldsMissing
}

// CleanupFatalError is returned when the final submission row delete fails.
type CleanupFatalError struct {
	SubmissionID uuid.UUID
	Err          error
}

func (e *CleanupFatalError) Error() string {
	return fmt.Sprintf("deleting submission %s: %v", e.SubmissionID, e.Err)
}

func (e *CleanupFatalError) Unwrap() []error {
	return []error{ErrCleanupFatal, e.Err}
}
