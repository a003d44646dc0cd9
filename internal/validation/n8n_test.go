package validation_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veriform/internal/config"
	"veriform/internal/domain"
	"veriform/internal/port"
	"veriform/internal/validation"
)

func newRequest() *port.ValidationRequest {
	return &port.ValidationRequest{
		SubmissionID: uuid.New(),
		ValidationID: uuid.New(),
		FormID:       uuid.New(),
		FormName:     "Supplier onboarding",
		Fields: []port.ValidationField{
			{FieldID: uuid.New(), Label: "Tax ID", Type: "text", Value: "B12345678", AIPrompt: "check format"},
		},
		Files: []port.ValidationFile{},
	}
}

func TestN8NClient_Send_Success(t *testing.T) {
	var gotToken string
	var gotBody port.ValidationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Validation-Token")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"executionId":"exec-42"}`))
	}))
	defer srv.Close()

	client := validation.NewN8NClient(&config.ValidationConfig{
		WebhookURL: srv.URL, WebhookToken: "s3cret", Timeout: time.Second,
	})
	req := newRequest()

	ack, err := client.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "exec-42", ack.ExecutionID)
	assert.Equal(t, "s3cret", gotToken)
	assert.Equal(t, req.SubmissionID, gotBody.SubmissionID)
	require.Len(t, gotBody.Fields, 1)
	assert.Equal(t, "B12345678", gotBody.Fields[0].Value)
}

func TestN8NClient_Send_NonJSONAck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Workflow was started"))
	}))
	defer srv.Close()

	client := validation.NewN8NClient(&config.ValidationConfig{WebhookURL: srv.URL, Timeout: time.Second})
	ack, err := client.Send(context.Background(), newRequest())
	require.NoError(t, err)
	assert.Empty(t, ack.ExecutionID)
}

func TestN8NClient_Send_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := validation.NewN8NClient(&config.ValidationConfig{WebhookURL: srv.URL, Timeout: time.Second})
	_, err := client.Send(context.Background(), newRequest())
	require.Error(t, err)

	var de *validation.DispatchError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.ValidationErrorService, de.Type)
	assert.Equal(t, http.StatusBadGateway, de.StatusCode)
	assert.Contains(t, de.Message, "502")
	assert.ErrorIs(t, err, validation.ErrDispatchServiceError)
}

func TestN8NClient_Send_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := validation.NewN8NClient(&config.ValidationConfig{WebhookURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := client.Send(context.Background(), newRequest())
	require.Error(t, err)

	errType, msg := validation.Classify(err)
	assert.Equal(t, domain.ValidationErrorTimeout, errType)
	assert.Contains(t, msg, "took too long")
	assert.ErrorIs(t, err, validation.ErrDispatchTimeout)
}

func TestN8NClient_Send_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := validation.NewN8NClient(&config.ValidationConfig{WebhookURL: url, Timeout: time.Second})
	_, err := client.Send(context.Background(), newRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrDispatchNetwork)
}

func TestN8NClient_Send_NotConfigured(t *testing.T) {
	client := validation.NewN8NClient(&config.ValidationConfig{})
	_, err := client.Send(context.Background(), newRequest())
	errType, _ := validation.Classify(err)
	assert.Equal(t, domain.ValidationErrorNetwork, errType)
}

func TestClassify_UnknownError(t *testing.T) {
	errType, msg := validation.Classify(errors.New("boom"))
	assert.Equal(t, domain.ValidationErrorNetwork, errType)
	assert.NotEmpty(t, msg)
}
