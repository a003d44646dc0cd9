package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"veriform/internal/domain"
	"veriform/internal/logger"
	"veriform/internal/service"
)

// ValidationHandler receives AI workflow callbacks and exposes validation state.
type ValidationHandler struct {
	submissions service.SubmissionService
	waiter      service.CompletionWaiter
}

// NewValidationHandler creates a new ValidationHandler.
func NewValidationHandler(submissions service.SubmissionService, waiter service.CompletionWaiter) *ValidationHandler {
	return &ValidationHandler{submissions: submissions, waiter: waiter}
}

// Callback handles POST /api/v1/validations/callback
// @Summary Receive an AI validation result
// @Description Called by the validation workflow. Requires the shared X-Validation-Token header.
// @Tags validations
// @Accept json
// @Produce json
// @Param X-Validation-Token header string true "Shared callback token"
// @Param body body domain.ValidationCallback true "Validation outcome"
// @Success 200 {object} Response{data=domain.Submission}
// @Failure 400 {object} ErrorResponseBody "Malformed body"
// @Failure 422 {object} ErrorResponseBody "Result does not match the pending validation"
// @Router /validations/callback [post]
func (h *ValidationHandler) Callback(c *gin.Context) {
	var cb domain.ValidationCallback
	if err := c.ShouldBindJSON(&cb); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "malformed callback body")
		return
	}

	result, err := domain.NormalizeValidationCallback(&cb)
	if err != nil {
		logger.Warnf("validationHandler.Callback: rejected callback for %s: %v", cb.SubmissionID, err)
		RespondError(c, http.StatusBadRequest, "INVALID_CALLBACK", err.Error())
		return
	}

	sub, err := h.submissions.CompleteValidation(c.Request.Context(), result)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, sub)
}

// Latest handles GET /api/v1/submissions/:id/validation
// @Summary Get the latest validation record
// @Tags validations
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} Response{data=domain.ValidationRecord}
// @Failure 404 {object} ErrorResponseBody "No validation yet"
// @Security BearerAuth
// @Router /submissions/{id}/validation [get]
func (h *ValidationHandler) Latest(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	rec, err := h.submissions.GetLatestValidation(c.Request.Context(), id, caller)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

// Wait handles GET /api/v1/submissions/:id/validation/wait
// @Summary Wait for the pending validation to resolve
// @Description Polls the validation record until it resolves or the attempts run out. A give-up is not an error.
// @Tags validations
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} Response{data=WaitResponse}
// @Security BearerAuth
// @Router /submissions/{id}/validation/wait [get]
func (h *ValidationHandler) Wait(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	// Access check before blocking.
	if _, err := h.submissions.Get(c.Request.Context(), id, caller); err != nil {
		HandleError(c, err)
		return
	}

	outcome, err := h.waiter.Wait(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, WaitResponse{
		Outcome:    outcome.Kind.String(),
		Attempts:   outcome.Attempts,
		Validation: outcome.Record,
		Submission: outcome.Submission,
	})
}
