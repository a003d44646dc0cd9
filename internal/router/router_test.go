package router_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"veriform/internal/domain"
	"veriform/internal/handler"
	"veriform/internal/middleware"
	"veriform/internal/router"
	"veriform/internal/service"
	"veriform/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

type testRouter struct {
	engine   *gin.Engine
	verifier *mocks.MockTokenVerifier
	subs     *mocks.MockSubmissionService
}

func newTestRouter(callbackToken string) *testRouter {
	verifier := new(mocks.MockTokenVerifier)
	subs := new(mocks.MockSubmissionService)
	engine := router.Setup(verifier, router.Handlers{
		Health:     handler.NewHealthHandler(okPinger{}),
		Submission: handler.NewSubmissionHandler(subs, new(mocks.MockCleanupService)),
		Validation: handler.NewValidationHandler(subs, new(mocks.MockCompletionWaiter)),
		Attachment: handler.NewAttachmentHandler(new(mocks.MockAttachmentService)),
	}, router.Options{
		AllowedOrigins: []string{"http://localhost:3000"},
		CallbackToken:  callbackToken,
		RateLimiter:    middleware.NewRateLimiter(100, 100),
	})
	return &testRouter{engine: engine, verifier: verifier, subs: subs}
}

func (tr *testRouter) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	tr.engine.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	tr := newTestRouter("s3cret")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, tr.do(req).Code)
}

func TestRouter_CallbackRequiresToken(t *testing.T) {
	tr := newTestRouter("s3cret")
	body := []byte(`{"submission_id":"` + uuid.New().String() + `","status":"PENDING"}`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/validations/callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusUnauthorized, tr.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/validations/callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(router.CallbackTokenHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, tr.do(req).Code)
	tr.subs.AssertNotCalled(t, "CompleteValidation", mock.Anything, mock.Anything)
}

func TestRouter_CallbackWithToken(t *testing.T) {
	tr := newTestRouter("s3cret")
	subID := uuid.New()
	tr.subs.On("CompleteValidation", mock.Anything, mock.Anything).
		Return(&domain.Submission{ID: subID, Status: domain.SubmissionStatusPendingAI}, nil)

	body := []byte(`{"submission_id":"` + subID.String() + `","status":"PENDING"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validations/callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(router.CallbackTokenHeader, "s3cret")

	assert.Equal(t, http.StatusOK, tr.do(req).Code)
	tr.subs.AssertExpectations(t)
}

func TestRouter_CallbackRejectedWhenTokenUnset(t *testing.T) {
	tr := newTestRouter("")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validations/callback", bytes.NewReader([]byte(`{}`)))
	req.Header.Set(router.CallbackTokenHeader, "")
	assert.Equal(t, http.StatusUnauthorized, tr.do(req).Code)
}

func TestRouter_SubmissionsRequireAuth(t *testing.T) {
	tr := newTestRouter("s3cret")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/submissions", nil)
	assert.Equal(t, http.StatusUnauthorized, tr.do(req).Code)
}

func TestRouter_ReviewQueueRequiresReviewer(t *testing.T) {
	tr := newTestRouter("s3cret")
	tr.verifier.On("ValidateToken", "user-token").
		Return(&service.Claims{UserID: uuid.New(), Role: domain.RoleUser}, nil)
	tr.verifier.On("ValidateToken", "admin-token").
		Return(&service.Claims{UserID: uuid.New(), Role: domain.RoleSuperAdmin}, nil)
	tr.subs.On("ListReviewQueue", mock.Anything, mock.Anything, 0, 20).
		Return([]domain.Submission{}, 0, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/queue", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	assert.Equal(t, http.StatusForbidden, tr.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/reviews/queue", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	assert.Equal(t, http.StatusOK, tr.do(req).Code)
}
