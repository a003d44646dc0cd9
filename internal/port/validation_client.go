package port

import (
	"context"

	"github.com/google/uuid"
)

// ValidationField is one non-file field sent for AI review.
type ValidationField struct {
	FieldID  uuid.UUID   `json:"field_id"`
	Label    string      `json:"label"`
	Type     string      `json:"type"`
	Value    interface{} `json:"value"`
	AIPrompt string      `json:"ai_prompt"`
}

// ValidationFile is one file field sent for AI review. URL and MimeType are
// nil when the field has no attachment.
type ValidationFile struct {
	FieldID  uuid.UUID `json:"field_id"`
	Label    string    `json:"label"`
	URL      *string   `json:"url"`
	MimeType *string   `json:"mime_type"`
	Type     string    `json:"type"`
	AIPrompt string    `json:"ai_prompt"`
}

// ValidationRequest is the payload for one dispatch.
type ValidationRequest struct {
	SubmissionID uuid.UUID         `json:"submission_id"`
	ValidationID uuid.UUID         `json:"validation_id"`
	FormID       uuid.UUID         `json:"form_id"`
	FormName     string            `json:"form_name"`
	CallbackURL  string            `json:"callback_url,omitempty"`
	Fields       []ValidationField `json:"fields"`
	Files        []ValidationFile  `json:"files"`
}

// ValidationAck is what the workflow returns on accepting a request.
type ValidationAck struct {
	ExecutionID string `json:"execution_id"`
	Raw         []byte `json:"-"`
}

// ValidationClient hands a request to the external AI workflow.
// Errors are classified as *validation.DispatchError.
type ValidationClient interface {
	Send(ctx context.Context, req *ValidationRequest) (*ValidationAck, error)
	Name() string
}
