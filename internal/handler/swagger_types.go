package handler

import (
	"github.com/google/uuid"

	"veriform/internal/domain"
	"veriform/internal/service"
)

// Swagger type definitions for API documentation.
// Request types are also bound directly by the handlers.

// --- Request Types ---

// CreateSubmissionRequest represents the create submission request body.
type CreateSubmissionRequest struct {
	FormID    uuid.UUID          `json:"form_id" binding:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	TargetID  uuid.UUID          `json:"target_id" example:"660e8400-e29b-41d4-a716-446655440001"`
	Values    domain.FieldValues `json:"values"`
	RawValues domain.FieldValues `json:"raw_values"`
}

// SaveDraftRequest represents the save draft and submit request body.
type SaveDraftRequest struct {
	Values    domain.FieldValues `json:"values"`
	RawValues domain.FieldValues `json:"raw_values"`
}

// ReviewRequest represents the review decision request body.
type ReviewRequest struct {
	Decision domain.ReviewDecision `json:"decision" binding:"required" example:"APPROVED"`
	Comment  string                `json:"comments" example:"Documents verified"`
}

// --- Response Types ---

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message" example:"attachment deleted"`
}

// StorageURLResponse carries a resolved object URL.
type StorageURLResponse struct {
	URL string `json:"url" example:"https://files.example.com/form-attachments/abc/doc.pdf"`
}

// ReviewResponse is returned after a review decision.
type ReviewResponse struct {
	Submission *domain.Submission  `json:"submission"`
	Review     *domain.ReviewEvent `json:"review"`
}

// WaitResponse is returned by the validation wait endpoint.
type WaitResponse struct {
	Outcome    string                   `json:"outcome" example:"completed"`
	Attempts   int                      `json:"attempts" example:"4"`
	Validation *domain.ValidationRecord `json:"validation,omitempty"`
	Submission *domain.Submission       `json:"submission,omitempty"`
}

// DeleteStep is one cleanup action in a delete report.
type DeleteStep struct {
	Name   string `json:"name" example:"attachment_object"`
	Target string `json:"target" example:"form-attachments/abc/doc.pdf"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// DeleteReportResponse describes what a delete did.
type DeleteReportResponse struct {
	SubmissionID   uuid.UUID    `json:"submission_id"`
	Mode           string       `json:"mode" example:"client"`
	Existed        bool         `json:"existed"`
	PartialFailure bool         `json:"partial_failure"`
	Steps          []DeleteStep `json:"steps"`
}

func newDeleteReportResponse(r *service.CleanupReport) DeleteReportResponse {
	out := DeleteReportResponse{
		SubmissionID:   r.SubmissionID,
		Mode:           r.Mode,
		Existed:        r.Existed,
		PartialFailure: r.PartialFailure(),
		Steps:          make([]DeleteStep, 0, len(r.Steps)),
	}
	for _, s := range r.Steps {
		step := DeleteStep{Name: s.Name, Target: s.Target, OK: s.Err == nil}
		if s.Err != nil {
			step.Error = s.Err.Error()
		}
		out.Steps = append(out.Steps, step)
	}
	return out
}

// --- Generic Response Wrappers ---

// Response wraps a successful response with data.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}
