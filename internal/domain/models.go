package domain

import (
	"time"

	"github.com/google/uuid"
)

// Form is the read-only header of a form definition.
type Form struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"form_name" json:"form_name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// FormField describes one input of a form, including its AI instruction.
type FormField struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	FormID             uuid.UUID `db:"form_id" json:"form_id"`
	Label              string    `db:"label" json:"label"`
	Type               FieldType `db:"type" json:"type"`
	Order              int       `db:"field_order" json:"field_order"`
	Required           bool      `db:"required" json:"required"`
	AIValidationPrompt string    `db:"ai_validation_prompt" json:"ai_validation_prompt"`
}

// IsFile reports whether the field takes an attachment instead of a value.
func (f *FormField) IsFile() bool {
	return f.Type == FieldTypeFile
}

// Submission is one filled instance of a form.
type Submission struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	FormID         uuid.UUID        `db:"form_id" json:"form_id"`
	TargetID       uuid.UUID        `db:"target_id" json:"target_id"`
	SubmittedBy    uuid.UUID        `db:"submitted_by" json:"submitted_by"`
	Values         FieldValues      `db:"values_json" json:"values"`
	RawValues      FieldValues      `db:"raw_values_json" json:"raw_values,omitempty"`
	Files          FileRefs         `db:"files_json" json:"files"`
	Status         SubmissionStatus `db:"status" json:"status"`
	AIValidationID *uuid.UUID       `db:"ai_validation_id" json:"ai_validation_id"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	SubmittedAt    *time.Time       `db:"submitted_at" json:"submitted_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// FieldValidation is the AI verdict for a single field.
type FieldValidation struct {
	FieldID    string   `json:"field_id,omitempty"`
	Label      string   `json:"label"`
	IsValid    bool     `json:"is_valid"`
	Confidence *float64 `json:"confidence,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// ValidationRecord is one AI validation attempt for a submission.
type ValidationRecord struct {
	ID             uuid.UUID           `db:"id" json:"id"`
	SubmissionID   uuid.UUID           `db:"submission_id" json:"submission_id"`
	Status         ValidationStatus    `db:"status" json:"status"`
	OverallScore   *float64            `db:"overall_score" json:"overall_score"`
	Recommendation Recommendation      `db:"recommendation" json:"recommendation,omitempty"`
	AIResults      AIResults           `db:"ai_results" json:"ai_results"`
	IssuesFound    StringList          `db:"issues_found" json:"issues_found"`
	ErrorType      ValidationErrorType `db:"error_type" json:"error_type,omitempty"`
	ErrorMessage   string              `db:"error_message" json:"error_message,omitempty"`
	RetryCount     int                 `db:"retry_count" json:"retry_count"`
	LastRetryAt    *time.Time          `db:"last_retry_at" json:"last_retry_at"`
	ExecutionID    string              `db:"n8n_execution_id" json:"execution_id,omitempty"`
	ProcessedAt    *time.Time          `db:"processed_at" json:"processed_at"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`
}

// MarkFailed moves the record to FAILED with the given classification.
func (v *ValidationRecord) MarkFailed(errType ValidationErrorType, msg string, at time.Time) {
	v.Status = ValidationStatusFailed
	v.ErrorType = errType
	v.ErrorMessage = msg
	v.ProcessedAt = &at
}

// ResetForRetry puts a failed record back to PENDING and bumps the retry counter.
// LastRetryAt never moves backwards.
func (v *ValidationRecord) ResetForRetry(at time.Time) {
	if v.LastRetryAt != nil && at.Before(*v.LastRetryAt) {
		at = *v.LastRetryAt
	}
	v.RetryCount++
	v.LastRetryAt = &at
	v.Status = ValidationStatusPending
	v.ErrorType = ""
	v.ErrorMessage = ""
	v.ProcessedAt = nil
}

// Attachment is an uploaded file tied to one submission field.
// Older rows only carry LegacyURL (a full storage path or public URL);
// StorageArea and StoragePath are set for everything uploaded since.
type Attachment struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	SubmissionID uuid.UUID  `db:"submission_id" json:"submission_id"`
	FieldID      uuid.UUID  `db:"field_id" json:"field_id"`
	StorageArea  string     `db:"bucket" json:"bucket,omitempty"`
	StoragePath  string     `db:"path" json:"path,omitempty"`
	LegacyURL    string     `db:"storage_path" json:"storage_path,omitempty"`
	FileName     string     `db:"file_name" json:"file_name"`
	Size         int64      `db:"file_size" json:"file_size"`
	MimeType     string     `db:"mime_type" json:"mime_type"`
	UploadedBy   *uuid.UUID `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// ReviewEvent is the immutable record of a human decision.
type ReviewEvent struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	SubmissionID uuid.UUID      `db:"submission_id" json:"submission_id"`
	ReviewerID   uuid.UUID      `db:"reviewer_id" json:"reviewer_id"`
	Decision     ReviewDecision `db:"decision" json:"decision"`
	Comment      string         `db:"comments" json:"comments"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// SubmissionDetail bundles a submission with its latest validation and files.
type SubmissionDetail struct {
	Submission  *Submission       `json:"submission"`
	Form        *Form             `json:"form,omitempty"`
	Fields      []FormField       `json:"fields"`
	Validation  *ValidationRecord `json:"validation"`
	Attachments []Attachment      `json:"attachments"`
}

// ValidationLog is one event in the history of a validation attempt.
type ValidationLog struct {
	ID           uuid.UUID `db:"id" json:"id"`
	ValidationID uuid.UUID `db:"validation_id" json:"validation_id"`
	Event        string    `db:"event" json:"event"`
	Detail       string    `db:"detail" json:"detail"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	ValidationLogDispatched     = "dispatched"
	ValidationLogDispatchFailed = "dispatch_failed"
	ValidationLogRetried        = "retried"
	ValidationLogCallback       = "callback_received"
	ValidationLogSwept          = "marked_stale"
)
