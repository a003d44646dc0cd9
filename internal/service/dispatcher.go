package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"veriform/internal/domain"
	"veriform/internal/logger"
	"veriform/internal/port"
	"veriform/internal/validation"
)

// stateWriteTimeout bounds the failure write after a dispatch gave up.
const stateWriteTimeout = 30 * time.Second

// Dispatcher hands submissions to the external AI validation workflow.
type Dispatcher interface {
	BuildRequest(ctx context.Context, submissionID uuid.UUID) (*port.ValidationRequest, error)
	Dispatch(ctx context.Context, submissionID uuid.UUID) error
}

type dispatcher struct {
	subRepo     port.SubmissionRepository
	valRepo     port.ValidationRepository
	formRepo    port.FormRepository
	attRepo     port.AttachmentRepository
	client      port.ValidationClient
	locator     *AttachmentLocator
	callbackURL string
	now         func() time.Time
}

// NewDispatcher creates a new Dispatcher implementation.
func NewDispatcher(
	subRepo port.SubmissionRepository,
	valRepo port.ValidationRepository,
	formRepo port.FormRepository,
	attRepo port.AttachmentRepository,
	client port.ValidationClient,
	locator *AttachmentLocator,
	callbackURL string,
) Dispatcher {
	return &dispatcher{
		subRepo:     subRepo,
		valRepo:     valRepo,
		formRepo:    formRepo,
		attRepo:     attRepo,
		client:      client,
		locator:     locator,
		callbackURL: callbackURL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (d *dispatcher) BuildRequest(ctx context.Context, submissionID uuid.UUID) (*port.ValidationRequest, error) {
	sub, err := d.subRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	return d.buildRequest(ctx, sub)
}

func (d *dispatcher) buildRequest(ctx context.Context, sub *domain.Submission) (*port.ValidationRequest, error) {
	form, err := d.formRepo.GetByID(ctx, sub.FormID)
	if err != nil {
		return nil, fmt.Errorf("loading form: %w", err)
	}
	fields, err := d.formRepo.ListFields(ctx, sub.FormID)
	if err != nil {
		return nil, fmt.Errorf("loading form fields: %w", err)
	}
	atts, err := d.attRepo.ListBySubmission(ctx, sub.ID)
	if err != nil {
		return nil, fmt.Errorf("loading attachments: %w", err)
	}
	// Latest attachment per field wins.
	byField := make(map[uuid.UUID]*domain.Attachment, len(atts))
	for i := range atts {
		byField[atts[i].FieldID] = &atts[i]
	}

	req := &port.ValidationRequest{
		SubmissionID: sub.ID,
		FormID:       sub.FormID,
		FormName:     form.Name,
		CallbackURL:  d.callbackURL,
		Fields:       []port.ValidationField{},
		Files:        []port.ValidationFile{},
	}
	if sub.AIValidationID != nil {
		req.ValidationID = *sub.AIValidationID
	}

	for i := range fields {
		f := &fields[i]
		if !f.IsFile() {
			req.Fields = append(req.Fields, port.ValidationField{
				FieldID:  f.ID,
				Label:    f.Label,
				Type:     string(f.Type),
				Value:    sub.Values[f.ID.String()],
				AIPrompt: promptOr(f.AIValidationPrompt, "Validate that the field %s is correct", f.Label),
			})
			continue
		}

		file, ok := d.fileEntry(ctx, sub, f, byField[f.ID])
		if !ok {
			continue
		}
		if file.URL == nil {
			logger.Warn().
				Str("submission_id", sub.ID.String()).
				Str("field_id", f.ID.String()).
				Msg("dispatcher.BuildRequest: file has no resolvable URL")
		}
		req.Files = append(req.Files, file)
	}
	return req, nil
}

// fileEntry describes the file on field f, preferring the attachment row over
// the descriptor stored on the submission. ok is false when the field is empty.
func (d *dispatcher) fileEntry(ctx context.Context, sub *domain.Submission, f *domain.FormField, att *domain.Attachment) (port.ValidationFile, bool) {
	entry := port.ValidationFile{
		FieldID:  f.ID,
		Label:    f.Label,
		Type:     "document",
		AIPrompt: promptOr(f.AIValidationPrompt, "Analyze the document %s", f.Label),
	}
	ref, hasRef := sub.Files[f.ID.String()]
	if att == nil && !hasRef {
		return entry, false
	}

	var mime, fileURL string
	if att != nil {
		mime = att.MimeType
		u, resolvable, err := d.locator.URL(ctx, att)
		if err != nil {
			logger.Warnf("dispatcher.fileEntry: url for attachment %s: %v", att.ID, err)
		}
		if resolvable && err == nil {
			fileURL = u
		}
	}
	if fileURL == "" && hasRef {
		fileURL = ref.URL
	}
	if mime == "" && hasRef {
		mime = ref.Type
	}

	if fileURL != "" {
		entry.URL = &fileURL
	}
	if mime != "" {
		entry.MimeType = &mime
		if strings.HasPrefix(mime, "image/") {
			entry.Type = "image"
		}
	}
	return entry, true
}

func (d *dispatcher) Dispatch(ctx context.Context, submissionID uuid.UUID) error {
	sub, err := d.subRepo.GetByID(ctx, submissionID)
	if err != nil {
		return err
	}
	if sub.Status != domain.SubmissionStatusPendingAI || sub.AIValidationID == nil {
		return fmt.Errorf("%w: submission %s is %s", domain.ErrInvalidValidationState, sub.ID, sub.Status)
	}
	validationID := *sub.AIValidationID

	req, err := d.buildRequest(ctx, sub)
	if err != nil {
		dispatchErr := &validation.DispatchError{
			Type:    domain.ValidationErrorNetwork,
			Message: "could not prepare the validation request",
			Err:     err,
		}
		d.markFailed(ctx, sub.ID, validationID, dispatchErr)
		return dispatchErr
	}

	logger.Info().
		Str("submission_id", sub.ID.String()).
		Str("validation_id", validationID.String()).
		Int("fields", len(req.Fields)).
		Int("files", len(req.Files)).
		Str("client", d.client.Name()).
		Msg("dispatcher.Dispatch: sending validation request")

	ack, err := d.client.Send(ctx, req)
	if err != nil {
		d.markFailed(ctx, sub.ID, validationID, err)
		return err
	}

	d.appendLog(ctx, validationID, domain.ValidationLogDispatched, ack.ExecutionID)
	if ack.ExecutionID != "" {
		d.storeExecutionID(ctx, validationID, ack.ExecutionID)
	}
	return nil
}

func (d *dispatcher) storeExecutionID(ctx context.Context, validationID uuid.UUID, executionID string) {
	rec, err := d.valRepo.GetByID(ctx, validationID)
	if err != nil {
		logger.Warnf("dispatcher.storeExecutionID: loading record %s: %v", validationID, err)
		return
	}
	if rec.Status != domain.ValidationStatusPending {
		return
	}
	rec.ExecutionID = executionID
	if err := d.valRepo.Update(ctx, rec); err != nil {
		logger.Warnf("dispatcher.storeExecutionID: updating record %s: %v", validationID, err)
	}
}

// markFailed records the classified failure on the record and the submission
// together. A record that already resolved is left alone.
func (d *dispatcher) markFailed(ctx context.Context, submissionID, validationID uuid.UUID, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stateWriteTimeout)
	defer cancel()

	errType, msg := validation.Classify(cause)
	logger.Warn().
		Str("submission_id", submissionID.String()).
		Str("error_type", string(errType)).
		Err(cause).
		Msg("dispatcher.markFailed: validation dispatch failed")

	d.appendLog(ctx, validationID, domain.ValidationLogDispatchFailed, fmt.Sprintf("%s: %s", errType, msg))

	sub, err := d.subRepo.GetByID(ctx, submissionID)
	if err != nil {
		logger.Errorf("dispatcher.markFailed: loading submission %s: %v", submissionID, err)
		return
	}
	rec, err := d.valRepo.GetByID(ctx, validationID)
	if err != nil {
		logger.Errorf("dispatcher.markFailed: loading record %s: %v", validationID, err)
		return
	}
	if rec.Status.IsResolved() || sub.Status != domain.SubmissionStatusPendingAI {
		logger.Infof("dispatcher.markFailed: %s already resolved (%s / %s), leaving it", submissionID, sub.Status, rec.Status)
		return
	}

	rec.MarkFailed(errType, msg, d.now())
	if err := sub.Apply(domain.TriggerAIFailed); err != nil {
		logger.Errorf("dispatcher.markFailed: %v", err)
		return
	}
	if err := d.subRepo.ResolveValidation(ctx, sub, domain.SubmissionStatusPendingAI, rec); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			logger.Infof("dispatcher.markFailed: %s moved concurrently, leaving it", submissionID)
			return
		}
		logger.Errorf("dispatcher.markFailed: saving failure for %s: %v", submissionID, err)
	}
}

func (d *dispatcher) appendLog(ctx context.Context, validationID uuid.UUID, event, detail string) {
	entry := &domain.ValidationLog{ValidationID: validationID, Event: event, Detail: detail}
	if err := d.valRepo.AppendLog(ctx, entry); err != nil {
		logger.Warnf("dispatcher.appendLog: failed to write %s log for %s: %v", event, validationID, err)
	}
}

func promptOr(prompt, format, label string) string {
	if strings.TrimSpace(prompt) != "" {
		return prompt
	}
	return fmt.Sprintf(format, label)
}
