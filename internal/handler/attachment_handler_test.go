package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
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

func multipartFile(t *testing.T, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestAttachmentHandler_Upload_Success(t *testing.T) {
	svc := new(mocks.MockAttachmentService)
	h := handler.NewAttachmentHandler(svc)
	subID, fieldID, userID := uuid.New(), uuid.New(), uuid.New()

	svc.On("Upload", mock.Anything, mock.MatchedBy(func(in *service.AttachmentUploadInput) bool {
		return in.SubmissionID == subID && in.FieldID == fieldID &&
			in.FileName == "passport.pdf" && in.Size == int64(len("%PDF-1.4 test")) && in.Caller.UserID == userID
	})).Return(&domain.Attachment{ID: uuid.New(), SubmissionID: subID, FieldID: fieldID}, nil)

	body, contentType := multipartFile(t, "passport.pdf", []byte("%PDF-1.4 test"))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/", body)
	c.Request.Header.Set("Content-Type", contentType)
	c.Params = gin.Params{{Key: "id", Value: subID.String()}, {Key: "fieldId", Value: fieldID.String()}}
	setAuthContext(c, userID, domain.RoleUser)

	h.Upload(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestAttachmentHandler_Upload_NoFile(t *testing.T) {
	svc := new(mocks.MockAttachmentService)
	h := handler.NewAttachmentHandler(svc)

	c, w := newContext(http.MethodPost, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}, {Key: "fieldId", Value: uuid.New().String()}}
	setAuthContext(c, uuid.New(), domain.RoleUser)

	h.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FILE", decodeResponse(t, w).Error.Code)
}

func TestAttachmentHandler_Upload_BadFieldID(t *testing.T) {
	svc := new(mocks.MockAttachmentService)
	h := handler.NewAttachmentHandler(svc)

	c, w := newContext(http.MethodPost, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}, {Key: "fieldId", Value: "x"}}
	setAuthContext(c, uuid.New(), domain.RoleUser)

	h.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", decodeResponse(t, w).Error.Code)
}

func TestAttachmentHandler_Upload_TooLarge(t *testing.T) {
	svc := new(mocks.MockAttachmentService)
	h := handler.NewAttachmentHandler(svc)

	svc.On("Upload", mock.Anything, mock.Anything).Return(nil, domain.ErrFileTooLarge)

	body, contentType := multipartFile(t, "big.png", []byte("\x89PNG\r\n\x1a\n"))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/", body)
	c.Request.Header.Set("Content-Type", contentType)
	c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}, {Key: "fieldId", Value: uuid.New().String()}}
	setAuthContext(c, uuid.New(), domain.RoleUser)

	h.Upload(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestAttachmentHandler_Delete(t *testing.T) {
	svc := new(mocks.MockAttachmentService)
	h := handler.NewAttachmentHandler(svc)
	attID := uuid.New()

	svc.On("Delete", mock.Anything, attID, mock.Anything).Return(nil)

	c, w := newContext(http.MethodDelete, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: attID.String()}}
	setAuthContext(c, uuid.New(), domain.RoleUser)

	h.Delete(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestAttachmentHandler_StorageURL(t *testing.T) {
	svc := new(mocks.MockAttachmentService)
	h := handler.NewAttachmentHandler(svc)

	svc.On("PublicURL", mock.Anything, "documents", "a/b.pdf").Return("https://files.test/documents/a/b.pdf", nil)

	c, w := newContext(http.MethodGet, "/api/v1/storage/url?bucket=documents&path=a/b.pdf", nil)
	setAuthContext(c, uuid.New(), domain.RoleUser)

	h.StorageURL(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, "https://files.test/documents/a/b.pdf", data["url"])
}

func TestAttachmentHandler_StorageURL_MissingParams(t *testing.T) {
	svc := new(mocks.MockAttachmentService)
	h := handler.NewAttachmentHandler(svc)

	c, w := newContext(http.MethodGet, "/api/v1/storage/url?bucket=documents", nil)
	setAuthContext(c, uuid.New(), domain.RoleUser)

	h.StorageURL(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "PublicURL", mock.Anything, mock.Anything, mock.Anything)
}
