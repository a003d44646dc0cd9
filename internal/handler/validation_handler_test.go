package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"veriform/internal/domain"
	"veriform/internal/handler"
	"veriform/internal/service"
	"veriform/mocks"
)

func newValidationHandler() (*handler.ValidationHandler, *mocks.MockSubmissionService, *mocks.MockCompletionWaiter) {
	subs := new(mocks.MockSubmissionService)
	waiter := new(mocks.MockCompletionWaiter)
	return handler.NewValidationHandler(subs, waiter), subs, waiter
}

func TestValidationHandler_Callback_Completed(t *testing.T) {
	h, subs, _ := newValidationHandler()
	subID := uuid.New()

	subs.On("CompleteValidation", mock.Anything, mock.MatchedBy(func(r *domain.ValidationResult) bool {
		return r.SubmissionID == subID &&
			r.Status == domain.ValidationStatusCompleted &&
			r.OverallScore != nil && *r.OverallScore == 0.82
	})).Return(&domain.Submission{ID: subID, Status: domain.SubmissionStatusAIValidated}, nil)

	body := []byte(`{"submission_id":"` + subID.String() + `","status":"COMPLETED","overall_score":"0.82","recommendation":"APPROVE"}`)
	c, w := newContext(http.MethodPost, "/api/v1/validations/callback", body)

	h.Callback(c)

	assert.Equal(t, http.StatusOK, w.Code)
	subs.AssertExpectations(t)
}

func TestValidationHandler_Callback_Malformed(t *testing.T) {
	h, subs, _ := newValidationHandler()

	c, w := newContext(http.MethodPost, "/api/v1/validations/callback", []byte(`{not json`))

	h.Callback(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	subs.AssertNotCalled(t, "CompleteValidation", mock.Anything, mock.Anything)
}

func TestValidationHandler_Callback_MissingSubmission(t *testing.T) {
	h, subs, _ := newValidationHandler()

	c, w := newContext(http.MethodPost, "/api/v1/validations/callback", []byte(`{"status":"COMPLETED"}`))

	h.Callback(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_CALLBACK", decodeResponse(t, w).Error.Code)
	subs.AssertNotCalled(t, "CompleteValidation", mock.Anything, mock.Anything)
}

func TestValidationHandler_Callback_LateResultRefused(t *testing.T) {
	h, subs, _ := newValidationHandler()
	subID := uuid.New()

	subs.On("CompleteValidation", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidValidationState)

	body := []byte(`{"submission_id":"` + subID.String() + `","status":"FAILED","error_type":"TIMEOUT"}`)
	c, w := newContext(http.MethodPost, "/api/v1/validations/callback", body)

	h.Callback(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestValidationHandler_Latest(t *testing.T) {
	h, subs, _ := newValidationHandler()
	subID := uuid.New()

	subs.On("GetLatestValidation", mock.Anything, subID, mock.Anything).
		Return(&domain.ValidationRecord{ID: uuid.New(), SubmissionID: subID, Status: domain.ValidationStatusPending}, nil)

	c, w := newContext(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: subID.String()}}
	setAuthContext(c, uuid.New(), domain.RoleUser)

	h.Latest(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestValidationHandler_Wait_Completed(t *testing.T) {
	h, subs, waiter := newValidationHandler()
	subID := uuid.New()
	userID := uuid.New()

	subs.On("Get", mock.Anything, subID, mock.Anything).Return(&domain.Submission{ID: subID, SubmittedBy: userID}, nil)
	waiter.On("Wait", mock.Anything, subID).Return(service.PollOutcome{
		Kind:     service.PollCompleted,
		Attempts: 3,
		Record:   &domain.ValidationRecord{ID: uuid.New(), Status: domain.ValidationStatusCompleted},
	}, nil)

	c, w := newContext(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: subID.String()}}
	setAuthContext(c, userID, domain.RoleUser)

	h.Wait(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "completed", data["outcome"])
	assert.Equal(t, float64(3), data["attempts"])
}

func TestValidationHandler_Wait_GaveUp(t *testing.T) {
	h, subs, waiter := newValidationHandler()
	subID := uuid.New()

	subs.On("Get", mock.Anything, subID, mock.Anything).Return(&domain.Submission{ID: subID}, nil)
	waiter.On("Wait", mock.Anything, subID).Return(service.PollOutcome{Kind: service.PollGaveUp, Attempts: 20}, nil)

	c, w := newContext(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: subID.String()}}
	setAuthContext(c, uuid.New(), domain.RoleAdmin)

	h.Wait(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, "gave_up", data["outcome"])
	assert.Nil(t, data["validation"])
}

func TestValidationHandler_Wait_Forbidden(t *testing.T) {
	h, subs, waiter := newValidationHandler()
	subID := uuid.New()

	subs.On("Get", mock.Anything, subID, mock.Anything).Return(nil, domain.ErrForbidden)

	c, w := newContext(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: subID.String()}}
	setAuthContext(c, uuid.New(), domain.RoleUser)

	h.Wait(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	waiter.AssertNotCalled(t, "Wait", mock.Anything, mock.Anything)
}

func TestValidationHandler_Wait_Canceled(t *testing.T) {
	h, subs, waiter := newValidationHandler()
	subID := uuid.New()

	subs.On("Get", mock.Anything, subID, mock.Anything).Return(&domain.Submission{ID: subID}, nil)
	waiter.On("Wait", mock.Anything, subID).Return(service.PollOutcome{Attempts: 1}, context.Canceled)

	c, w := newContext(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: subID.String()}}
	setAuthContext(c, uuid.New(), domain.RoleUser)

	h.Wait(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
