package domain

// UserRole defines the platform role of the caller.
type UserRole string

const (
	RoleSuperAdmin UserRole = "superadmin"
	RoleAdmin      UserRole = "admin"
	RoleUser       UserRole = "user"
)

// ValidUserRoles is the set of roles accepted from tokens.
var ValidUserRoles = map[UserRole]bool{
	RoleSuperAdmin: true,
	RoleAdmin:      true,
	RoleUser:       true,
}

// CanReview reports whether the role may approve or reject submissions.
func (r UserRole) CanReview() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// SubmissionStatus represents the lifecycle of a submitted form.
type SubmissionStatus string

const (
	SubmissionStatusDraft              SubmissionStatus = "DRAFT"
	SubmissionStatusPendingAI          SubmissionStatus = "PENDING_AI_VALIDATION"
	SubmissionStatusAIValidated        SubmissionStatus = "AI_VALIDATED"
	SubmissionStatusAIValidationFailed SubmissionStatus = "AI_VALIDATION_FAILED"
	SubmissionStatusSubmitted          SubmissionStatus = "SUBMITTED"
	SubmissionStatusApproved           SubmissionStatus = "APPROVED"
	SubmissionStatusRejected           SubmissionStatus = "REJECTED"
)

// IsTerminal reports whether no further transition can leave this status.
func (s SubmissionStatus) IsTerminal() bool {
	return s == SubmissionStatusApproved || s == SubmissionStatusRejected
}

// ValidationStatus represents the state of one AI validation attempt.
type ValidationStatus string

const (
	ValidationStatusPending   ValidationStatus = "PENDING"
	ValidationStatusCompleted ValidationStatus = "COMPLETED"
	ValidationStatusFailed    ValidationStatus = "FAILED"
)

// IsResolved reports whether the attempt reached COMPLETED or FAILED.
func (s ValidationStatus) IsResolved() bool {
	return s == ValidationStatusCompleted || s == ValidationStatusFailed
}

// Recommendation is the AI service's suggested outcome.
type Recommendation string

const (
	RecommendationApprove Recommendation = "APPROVE"
	RecommendationReview  Recommendation = "REVIEW"
	RecommendationReject  Recommendation = "REJECT"
)

var validRecommendations = map[Recommendation]bool{
	RecommendationApprove: true,
	RecommendationReview:  true,
	RecommendationReject:  true,
}

// ValidationErrorType classifies why a validation attempt failed.
type ValidationErrorType string

const (
	ValidationErrorTimeout ValidationErrorType = "TIMEOUT"
	ValidationErrorService ValidationErrorType = "N8N_ERROR"
	ValidationErrorNetwork ValidationErrorType = "NETWORK_ERROR"
)

// ReviewDecision is a human reviewer's verdict.
type ReviewDecision string

const (
	ReviewDecisionApproved ReviewDecision = "APPROVED"
	ReviewDecisionRejected ReviewDecision = "REJECTED"
)

// Valid reports whether d is one of the two accepted decisions.
func (d ReviewDecision) Valid() bool {
	return d == ReviewDecisionApproved || d == ReviewDecisionRejected
}

// FieldType is the input type of a form field.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeEmail    FieldType = "email"
	FieldTypePhone    FieldType = "phone"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeFile     FieldType = "file"
)

// AllowedContentTypes lists the MIME types accepted for attachments, keyed to
// the extension used in storage keys.
var AllowedContentTypes = map[string]string{
	"application/pdf": "pdf",
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/webp":      "webp",
	"image/gif":       "gif",
}
