// Package validation talks to the external AI validation workflow.
package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"veriform/internal/config"
	"veriform/internal/domain"
	"veriform/internal/port"
)

const tokenHeader = "X-Validation-Token"

// N8NClient posts validation requests to an n8n webhook.
type N8NClient struct {
	webhookURL string
	token      string
	timeout    time.Duration
	client     *http.Client
}

// NewN8NClient creates a client for the configured webhook.
func NewN8NClient(cfg *config.ValidationConfig) *N8NClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &N8NClient{
		webhookURL: cfg.WebhookURL,
		token:      cfg.WebhookToken,
		timeout:    timeout,
		client:     &http.Client{},
	}
}

// Name identifies the client in logs.
func (c *N8NClient) Name() string { return "n8n" }

// Send posts req and waits at most the configured timeout for the webhook to
// accept it. Every error returned is a *DispatchError.
func (c *N8NClient) Send(ctx context.Context, req *port.ValidationRequest) (*port.ValidationAck, error) {
	if c.webhookURL == "" {
		return nil, &DispatchError{
			Type:    domain.ValidationErrorNetwork,
			Message: "validation webhook is not configured",
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &DispatchError{Type: domain.ValidationErrorNetwork, Message: "could not encode validation request", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, &DispatchError{Type: domain.ValidationErrorNetwork, Message: "could not build validation request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(tokenHeader, c.token)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, c.classifyTransport(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, c.classifyTransport(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &DispatchError{
			Type:       domain.ValidationErrorService,
			Message:    fmt.Sprintf("validation service responded with status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("response body: %s", truncate(string(respBody), 300)),
		}
	}

	return &port.ValidationAck{ExecutionID: parseExecutionID(respBody), Raw: respBody}, nil
}

func (c *N8NClient) classifyTransport(ctx context.Context, err error) *DispatchError {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &DispatchError{
			Type:    domain.ValidationErrorTimeout,
			Message: fmt.Sprintf("analysis took too long (more than %s)", c.timeout),
			Err:     err,
		}
	}
	return &DispatchError{
		Type:    domain.ValidationErrorNetwork,
		Message: "network error reaching the validation service",
		Err:     err,
	}
}

// parseExecutionID accepts either execution_id or executionId in the ack body.
// Bodies that are not JSON objects yield "".
func parseExecutionID(body []byte) string {
	var ack struct {
		ExecutionID      string `json:"execution_id"`
		ExecutionIDCamel string `json:"executionId"`
	}
	if err := json.Unmarshal(body, &ack); err != nil {
		return ""
	}
	if ack.ExecutionID != "" {
		return ack.ExecutionID
	}
	return ack.ExecutionIDCamel
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
