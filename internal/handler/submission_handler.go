package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"veriform/internal/domain"
	"veriform/internal/service"
)

// SubmissionHandler handles the submission lifecycle endpoints.
type SubmissionHandler struct {
	submissions service.SubmissionService
	cleanup     service.CleanupService
}

// NewSubmissionHandler creates a new SubmissionHandler.
func NewSubmissionHandler(submissions service.SubmissionService, cleanup service.CleanupService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, cleanup: cleanup}
}

// Create handles POST /api/v1/submissions
// @Summary Start a draft submission
// @Tags submissions
// @Accept json
// @Produce json
// @Param body body CreateSubmissionRequest true "Form and initial values"
// @Success 201 {object} Response{data=domain.Submission}
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 404 {object} ErrorResponseBody "Form not found"
// @Security BearerAuth
// @Router /submissions [post]
func (h *SubmissionHandler) Create(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var req CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "form_id is required")
		return
	}

	sub, err := h.submissions.CreateDraft(c.Request.Context(), &service.CreateDraftInput{
		FormID:    req.FormID,
		TargetID:  req.TargetID,
		Caller:    caller,
		Values:    req.Values,
		RawValues: req.RawValues,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, sub)
}

// List handles GET /api/v1/submissions
// @Summary List the caller's submissions
// @Tags submissions
// @Produce json
// @Param offset query int false "Offset" default(0)
// @Param limit query int false "Limit" default(20)
// @Success 200 {object} Response{data=[]domain.Submission,meta=PagMeta}
// @Security BearerAuth
// @Router /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	offset, limit := parsePagination(c)
	subs, total, err := h.submissions.ListBySubmitter(c.Request.Context(), caller, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, subs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/submissions/:id
// @Summary Get a submission with its form, files and latest validation
// @Tags submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} Response{data=domain.SubmissionDetail}
// @Failure 403 {object} ErrorResponseBody "Not the owner or a reviewer"
// @Failure 404 {object} ErrorResponseBody "Submission not found"
// @Security BearerAuth
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) GetByID(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.submissions.GetDetail(c.Request.Context(), id, caller)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, detail)
}

// SaveDraft handles PUT /api/v1/submissions/:id
// @Summary Save draft values
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param body body SaveDraftRequest true "Field values"
// @Success 200 {object} Response{data=domain.Submission}
// @Failure 409 {object} ErrorResponseBody "Submission is no longer a draft"
// @Security BearerAuth
// @Router /submissions/{id} [put]
func (h *SubmissionHandler) SaveDraft(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "values must be an object")
		return
	}

	sub, err := h.submissions.SaveDraft(c.Request.Context(), &service.SaveDraftInput{
		SubmissionID: id,
		Caller:       caller,
		Values:       req.Values,
		RawValues:    req.RawValues,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, sub)
}

// SubmitForAnalysis handles POST /api/v1/submissions/:id/submit
// @Summary Send a draft to AI validation
// @Description Checks required fields, moves the draft to PENDING_AI_VALIDATION and dispatches it in the background.
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param body body SaveDraftRequest false "Final values"
// @Success 202 {object} Response{data=domain.Submission}
// @Failure 409 {object} ErrorResponseBody "Not a draft"
// @Failure 422 {object} ErrorResponseBody "Required fields missing"
// @Security BearerAuth
// @Router /submissions/{id}/submit [post]
func (h *SubmissionHandler) SubmitForAnalysis(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req SaveDraftRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "values must be an object")
			return
		}
	}

	sub, err := h.submissions.SubmitForAnalysis(c.Request.Context(), &service.SubmitInput{
		SubmissionID: id,
		Caller:       caller,
		Values:       req.Values,
		RawValues:    req.RawValues,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, sub)
}

// Retry handles POST /api/v1/submissions/:id/retry
// @Summary Retry a failed AI validation
// @Tags submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 202 {object} Response{data=domain.Submission}
// @Failure 409 {object} ErrorResponseBody "Validation has not failed"
// @Security BearerAuth
// @Router /submissions/{id}/retry [post]
func (h *SubmissionHandler) Retry(c *gin.Context) {
	h.transition(c, http.StatusAccepted, h.submissions.RetryValidation)
}

// SubmitForReview handles POST /api/v1/submissions/:id/submit-for-review
// @Summary Hand an AI-validated submission to reviewers
// @Tags submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} Response{data=domain.Submission}
// @Failure 409 {object} ErrorResponseBody "Not AI validated"
// @Security BearerAuth
// @Router /submissions/{id}/submit-for-review [post]
func (h *SubmissionHandler) SubmitForReview(c *gin.Context) {
	h.transition(c, http.StatusOK, h.submissions.SubmitForReview)
}

// SubmitWithoutAI handles POST /api/v1/submissions/:id/submit-without-ai
// @Summary Submit for review skipping AI validation
// @Tags submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} Response{data=domain.Submission}
// @Failure 409 {object} ErrorResponseBody "Not a draft or failed validation"
// @Security BearerAuth
// @Router /submissions/{id}/submit-without-ai [post]
func (h *SubmissionHandler) SubmitWithoutAI(c *gin.Context) {
	h.transition(c, http.StatusOK, h.submissions.SubmitWithoutAI)
}

func (h *SubmissionHandler) transition(
	c *gin.Context,
	status int,
	fn func(ctx context.Context, id uuid.UUID, caller service.Caller) (*domain.Submission, error),
) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	sub, err := fn(c.Request.Context(), id, caller)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(status, APIResponse{Success: true, Data: sub})
}

// Review handles POST /api/v1/submissions/:id/review
// @Summary Approve or reject a submitted form
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param body body ReviewRequest true "Decision"
// @Success 200 {object} Response{data=ReviewResponse}
// @Failure 400 {object} ErrorResponseBody "Invalid decision"
// @Failure 409 {object} ErrorResponseBody "Not awaiting review"
// @Security BearerAuth
// @Router /submissions/{id}/review [post]
func (h *SubmissionHandler) Review(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "decision is required")
		return
	}

	sub, event, err := h.submissions.Review(c.Request.Context(), &service.ReviewInput{
		SubmissionID: id,
		Caller:       caller,
		Decision:     req.Decision,
		Comment:      req.Comment,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, ReviewResponse{Submission: sub, Review: event})
}

// ListReviews handles GET /api/v1/submissions/:id/reviews
// @Summary List review decisions for a submission
// @Tags reviews
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} Response{data=[]domain.ReviewEvent}
// @Security BearerAuth
// @Router /submissions/{id}/reviews [get]
func (h *SubmissionHandler) ListReviews(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	events, err := h.submissions.ListReviews(c.Request.Context(), id, caller)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, events)
}

// ReviewQueue handles GET /api/v1/reviews/queue
// @Summary List submissions awaiting review
// @Tags reviews
// @Produce json
// @Param offset query int false "Offset" default(0)
// @Param limit query int false "Limit" default(20)
// @Success 200 {object} Response{data=[]domain.Submission,meta=PagMeta}
// @Failure 403 {object} ErrorResponseBody "Reviewer role required"
// @Security BearerAuth
// @Router /reviews/queue [get]
func (h *SubmissionHandler) ReviewQueue(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	offset, limit := parsePagination(c)
	subs, total, err := h.submissions.ListReviewQueue(c.Request.Context(), caller, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, subs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Delete handles DELETE /api/v1/submissions/:id
// @Summary Delete a submission and everything attached to it
// @Description Best-effort cascade. The report lists every step and whether it failed.
// @Tags submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} Response{data=DeleteReportResponse}
// @Failure 403 {object} ErrorResponseBody "Forbidden"
// @Failure 500 {object} ErrorResponseBody "Submission row could not be deleted"
// @Security BearerAuth
// @Router /submissions/{id} [delete]
func (h *SubmissionHandler) Delete(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	report, err := h.cleanup.Delete(c.Request.Context(), id, caller)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, newDeleteReportResponse(report))
}
