package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"veriform/internal/domain"
	"veriform/internal/logger"
	"veriform/internal/port"
)

// CreateDraftInput is the DTO for starting a new submission.
type CreateDraftInput struct {
	FormID    uuid.UUID
	TargetID  uuid.UUID
	Caller    Caller
	Values    domain.FieldValues
	RawValues domain.FieldValues
}

// SaveDraftInput is the DTO for updating draft values.
type SaveDraftInput struct {
	SubmissionID uuid.UUID
	Caller       Caller
	Values       domain.FieldValues
	RawValues    domain.FieldValues
}

// SubmitInput is the DTO for sending a draft to AI validation. Values, when
// set, replace the stored values before the required-field check.
type SubmitInput struct {
	SubmissionID uuid.UUID
	Caller       Caller
	Values       domain.FieldValues
	RawValues    domain.FieldValues
}

// ReviewInput is the DTO for a reviewer's decision.
type ReviewInput struct {
	SubmissionID uuid.UUID
	Caller       Caller
	Decision     domain.ReviewDecision
	Comment      string
}

// SubmissionService drives submissions through their lifecycle.
type SubmissionService interface {
	CreateDraft(ctx context.Context, input *CreateDraftInput) (*domain.Submission, error)
	SaveDraft(ctx context.Context, input *SaveDraftInput) (*domain.Submission, error)
	SubmitForAnalysis(ctx context.Context, input *SubmitInput) (*domain.Submission, error)
	RetryValidation(ctx context.Context, submissionID uuid.UUID, caller Caller) (*domain.Submission, error)
	CompleteValidation(ctx context.Context, result *domain.ValidationResult) (*domain.Submission, error)
	Reconcile(ctx context.Context, submissionID uuid.UUID) (*domain.Submission, error)
	SubmitForReview(ctx context.Context, submissionID uuid.UUID, caller Caller) (*domain.Submission, error)
	SubmitWithoutAI(ctx context.Context, submissionID uuid.UUID, caller Caller) (*domain.Submission, error)
	Review(ctx context.Context, input *ReviewInput) (*domain.Submission, *domain.ReviewEvent, error)
	Get(ctx context.Context, submissionID uuid.UUID, caller Caller) (*domain.Submission, error)
	GetDetail(ctx context.Context, submissionID uuid.UUID, caller Caller) (*domain.SubmissionDetail, error)
	GetLatestValidation(ctx context.Context, submissionID uuid.UUID, caller Caller) (*domain.ValidationRecord, error)
	ListBySubmitter(ctx context.Context, caller Caller, offset, limit int) ([]domain.Submission, int, error)
	ListReviewQueue(ctx context.Context, caller Caller, offset, limit int) ([]domain.Submission, int, error)
	ListReviews(ctx context.Context, submissionID uuid.UUID, caller Caller) ([]domain.ReviewEvent, error)
}

// SubmissionServiceOption customizes a SubmissionService.
type SubmissionServiceOption func(*submissionService)

// WithDispatchRunner replaces the goroutine used to run dispatches.
func WithDispatchRunner(run func(func())) SubmissionServiceOption {
	return func(s *submissionService) { s.runDispatch = run }
}

// DispatchQueue hands dispatch jobs to a durable worker.
type DispatchQueue interface {
	Enqueue(ctx context.Context, submissionID uuid.UUID) error
}

// WithDispatchQueue routes dispatches through q. When enqueueing fails the
// dispatch runs in-process instead.
func WithDispatchQueue(q DispatchQueue) SubmissionServiceOption {
	return func(s *submissionService) { s.queue = q }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SubmissionServiceOption {
	return func(s *submissionService) { s.now = now }
}

type submissionService struct {
	subRepo        port.SubmissionRepository
	valRepo        port.ValidationRepository
	formRepo       port.FormRepository
	attRepo        port.AttachmentRepository
	reviewRepo     port.ReviewRepository
	dispatcher     Dispatcher
	dispatchBudget time.Duration
	runDispatch    func(func())
	queue          DispatchQueue
	now            func() time.Time
}

// NewSubmissionService creates a new SubmissionService implementation.
// dispatchBudget bounds each background dispatch including its state writes.
func NewSubmissionService(
	subRepo port.SubmissionRepository,
	valRepo port.ValidationRepository,
	formRepo port.FormRepository,
	attRepo port.AttachmentRepository,
	reviewRepo port.ReviewRepository,
	dispatcher Dispatcher,
	dispatchBudget time.Duration,
	opts ...SubmissionServiceOption,
) SubmissionService {
	s := &submissionService{
		subRepo:        subRepo,
		valRepo:        valRepo,
		formRepo:       formRepo,
		attRepo:        attRepo,
		reviewRepo:     reviewRepo,
		dispatcher:     dispatcher,
		dispatchBudget: dispatchBudget,
		runDispatch:    func(f func()) { go f() },
		now:            func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *submissionService) CreateDraft(ctx context.Context, input *CreateDraftInput) (*domain.Submission, error) {
	if err := input.Values.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.formRepo.GetByID(ctx, input.FormID); err != nil {
		return nil, err
	}

	sub := &domain.Submission{
		ID:          uuid.New(),
		FormID:      input.FormID,
		TargetID:    input.TargetID,
		SubmittedBy: input.Caller.UserID,
		Values:      nonNilValues(input.Values),
		RawValues:   nonNilValues(input.RawValues),
		Files:       domain.FileRefs{},
		Status:      domain.SubmissionStatusDraft,
	}
	if sub.TargetID == uuid.Nil {
		sub.TargetID = input.Caller.UserID
	}

	if err := s.subRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("creating submission: %w", err)
	}
	logger.Infof("submissionService.CreateDraft: created draft %s for form %s by %s", sub.ID, sub.FormID, sub.SubmittedBy)
	return sub, nil
}

func (s *submissionService) SaveDraft(ctx context.Context, input *SaveDraftInput) (*domain.Submission, error) {
	if err := input.Values.Validate(); err != nil {
		return nil, err
	}
	sub, err := s.subRepo.GetByID(ctx, input.SubmissionID)
	if err != nil {
		return nil, err
	}
	if err := input.Caller.requireOwner(sub); err != nil {
		return nil, err
	}
	if err := sub.Apply(domain.TriggerSaveDraft); err != nil {
		return nil, err
	}

	sub.Values = nonNilValues(input.Values)
	if input.RawValues != nil {
		sub.RawValues = input.RawValues
	}
	if err := s.subRepo.UpdateValues(ctx, sub); err != nil {
		return nil, s.conflictAsTransition(ctx, err, sub, domain.TriggerSaveDraft)
	}
	return sub, nil
}

func (s *submissionService) SubmitForAnalysis(ctx context.Context, input *SubmitInput) (*domain.Submission, error) {
	if input.Values != nil {
		if err := input.Values.Validate(); err != nil {
			return nil, err
		}
	}
	sub, err := s.subRepo.GetByID(ctx, input.SubmissionID)
	if err != nil {
		return nil, err
	}
	if err := input.Caller.requireOwner(sub); err != nil {
		return nil, err
	}
	if _, ok := domain.NextStatus(sub.Status, domain.TriggerSubmitForAnalysis); !ok {
		return nil, &domain.TransitionError{SubmissionID: sub.ID, From: sub.Status, To: domain.SubmissionStatusPendingAI}
	}

	if input.Values != nil {
		sub.Values = input.Values
	}
	if input.RawValues != nil {
		sub.RawValues = input.RawValues
	}

	if err := s.checkRequired(ctx, sub); err != nil {
		if input.Values != nil {
			// Values are kept even when the submit is refused.
			if saveErr := s.subRepo.UpdateValues(ctx, sub); saveErr != nil {
				logger.Warnf("submissionService.SubmitForAnalysis: failed to keep values for %s: %v", sub.ID, saveErr)
			}
		}
		return nil, err
	}

	now := s.now()
	rec := &domain.ValidationRecord{
		ID:           uuid.New(),
		SubmissionID: sub.ID,
		Status:       domain.ValidationStatusPending,
		AIResults:    domain.AIResults{FieldValidations: []domain.FieldValidation{}},
		IssuesFound:  domain.StringList{},
		ExecutionID:  fmt.Sprintf("pending_%d", now.UnixMilli()),
	}
	if err := sub.Apply(domain.TriggerSubmitForAnalysis); err != nil {
		return nil, err
	}
	if err := s.subRepo.BeginValidation(ctx, sub, rec); err != nil {
		sub.Status = domain.SubmissionStatusDraft
		return nil, s.conflictAsTransition(ctx, err, sub, domain.TriggerSubmitForAnalysis)
	}

	logger.Info().
		Str("submission_id", sub.ID.String()).
		Str("validation_id", rec.ID.String()).
		Msg("submissionService.SubmitForAnalysis: validation started")

	s.dispatchInBackground(ctx, sub.ID)
	return sub, nil
}

func (s *submissionService) RetryValidation(ctx context.Context, submissionID uuid.UUID, caller Caller) (*domain.Submission, error) {
	sub, err := s.subRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := caller.requireOwner(sub); err != nil {
		return nil, err
	}
	if _, ok := domain.NextStatus(sub.Status, domain.TriggerRetry); !ok {
		return nil, &domain.TransitionError{SubmissionID: sub.ID, From: sub.Status, To: domain.SubmissionStatusPendingAI}
	}

	rec, err := s.activeRecord(ctx, sub)
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.ValidationStatusFailed {
		return nil, fmt.Errorf("%w: record %s is %s", domain.ErrInvalidValidationState, rec.ID, rec.Status)
	}

	rec.ResetForRetry(s.now())
	if err := sub.Apply(domain.TriggerRetry); err != nil {
		return nil, err
	}
	if err := s.subRepo.RestartValidation(ctx, sub, rec); err != nil {
		sub.Status = domain.SubmissionStatusAIValidationFailed
		return nil, s.conflictAsTransition(ctx, err, sub, domain.TriggerRetry)
	}

	s.appendLog(ctx, rec.ID, domain.ValidationLogRetried, fmt.Sprintf("retry %d", rec.RetryCount))
	logger.Info().
		Str("submission_id", sub.ID.String()).
		Int("retry_count", rec.RetryCount).
		Msg("submissionService.RetryValidation: validation restarted")

	s.dispatchInBackground(ctx, sub.ID)
	return sub, nil
}

func (s *submissionService) CompleteValidation(ctx context.Context, result *domain.ValidationResult) (*domain.Submission, error) {
	sub, err := s.subRepo.GetByID(ctx, result.SubmissionID)
	if err != nil {
		return nil, err
	}

	var rec *domain.ValidationRecord
	if result.ValidationID != nil {
		rec, err = s.valRepo.GetByID(ctx, *result.ValidationID)
	} else {
		rec, err = s.activeRecord(ctx, sub)
	}
	if err != nil {
		return nil, err
	}
	if rec.SubmissionID != sub.ID {
		return nil, fmt.Errorf("%w: record %s belongs to another submission", domain.ErrInvalidValidationState, rec.ID)
	}
	if sub.AIValidationID != nil && *sub.AIValidationID != rec.ID {
		return nil, fmt.Errorf("%w: record %s is not the active attempt", domain.ErrInvalidValidationState, rec.ID)
	}

	s.appendLog(ctx, rec.ID, domain.ValidationLogCallback, string(result.Status))

	if result.Status == domain.ValidationStatusPending {
		return sub, nil
	}
	if rec.Status.IsResolved() {
		if rec.Status == result.Status && sub.Status != domain.SubmissionStatusPendingAI {
			// Duplicate delivery.
			return sub, nil
		}
		return nil, fmt.Errorf("%w: record %s already %s", domain.ErrInvalidValidationState, rec.ID, rec.Status)
	}

	trigger := domain.TriggerAICompleted
	if result.Status == domain.ValidationStatusFailed {
		trigger = domain.TriggerAIFailed
	}
	from := sub.Status
	if err := sub.Apply(trigger); err != nil {
		return nil, err
	}
	result.ApplyTo(rec, s.now())

	if err := s.subRepo.ResolveValidation(ctx, sub, from, rec); err != nil {
		sub.Status = from
		return nil, s.conflictAsTransition(ctx, err, sub, trigger)
	}

	logger.Info().
		Str("submission_id", sub.ID.String()).
		Str("status", string(sub.Status)).
		Str("recommendation", string(rec.Recommendation)).
		Msg("submissionService.CompleteValidation: validation result applied")
	return sub, nil
}

func (s *submissionService) Reconcile(ctx context.Context, submissionID uuid.UUID) (*domain.Submission, error) {
	sub, err := s.subRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != domain.SubmissionStatusPendingAI {
		return sub, nil
	}

	rec, err := s.activeRecord(ctx, sub)
	if err != nil {
		return nil, err
	}
	var trigger domain.Trigger
	switch rec.Status {
	case domain.ValidationStatusCompleted:
		trigger = domain.TriggerAICompleted
	case domain.ValidationStatusFailed:
		trigger = domain.TriggerAIFailed
	default:
		return sub, nil
	}

	if err := sub.Apply(trigger); err != nil {
		return nil, err
	}
	if err := s.subRepo.UpdateStatus(ctx, sub, domain.SubmissionStatusPendingAI); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			return s.subRepo.GetByID(ctx, submissionID)
		}
		return nil, err
	}
	logger.Infof("submissionService.Reconcile: submission %s moved to %s", sub.ID, sub.Status)
	return sub, nil
}

func (s *submissionService) SubmitForReview(ctx context.Context, submissionID uuid.UUID, caller Caller) (*domain.Submission, error) {
	return s.submit(ctx, submissionID, caller, domain.TriggerSubmitForReview)
}

func (s *submissionService) SubmitWithoutAI(ctx context.Context, submissionID uuid.UUID, caller Caller) (*domain.Submission, error) {
	sub, err := s.submit(ctx, submissionID, caller, domain.TriggerSubmitWithoutAI)
	if err != nil {
		return nil, err
	}
	logger.Warn().
		Str("submission_id", sub.ID.String()).
		Str("actor", caller.UserID.String()).
		Msg("submissionService.SubmitWithoutAI: submitted without AI validation")
	return sub, nil
}

func (s *submissionService) submit(ctx context.Context, submissionID uuid.UUID, caller Caller, trigger domain.Trigger) (*domain.Submission, error) {
	sub, err := s.subRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := caller.requireOwner(sub); err != nil {
		return nil, err
	}
	from := sub.Status
	if err := sub.Apply(trigger); err != nil {
		return nil, err
	}
	now := s.now()
	sub.SubmittedAt = &now
	if err := s.subRepo.UpdateStatus(ctx, sub, from); err != nil {
		sub.Status = from
		return nil, s.conflictAsTransition(ctx, err, sub, trigger)
	}
	return sub, nil
}

func (s *submissionService) Review(ctx context.Context, input *ReviewInput) (*domain.Submission, *domain.ReviewEvent, error) {
	if !input.Caller.Role.CanReview() {
		return nil, nil, domain.ErrForbidden
	}
	trigger, ok := domain.DecisionTrigger(input.Decision)
	if !ok {
		return nil, nil, domain.ErrInvalidDecision
	}
	sub, err := s.subRepo.GetByID(ctx, input.SubmissionID)
	if err != nil {
		return nil, nil, err
	}
	from := sub.Status
	if err := sub.Apply(trigger); err != nil {
		return nil, nil, err
	}

	event := &domain.ReviewEvent{
		ID:           uuid.New(),
		SubmissionID: sub.ID,
		ReviewerID:   input.Caller.UserID,
		Decision:     input.Decision,
		Comment:      input.Comment,
	}
	if err := s.subRepo.AppendReview(ctx, sub, event); err != nil {
		sub.Status = from
		return nil, nil, s.conflictAsTransition(ctx, err, sub, trigger)
	}

	logger.Info().
		Str("submission_id", sub.ID.String()).
		Str("reviewer", input.Caller.UserID.String()).
		Str("decision", string(input.Decision)).
		Msg("submissionService.Review: decision recorded")
	return sub, event, nil
}

func (s *submissionService) Get(ctx context.Context, submissionID uuid.UUID, caller Caller) (*domain.Submission, error) {
	sub, err := s.subRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := caller.requireView(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *submissionService) GetDetail(ctx context.Context, submissionID uuid.UUID, caller Caller) (*domain.SubmissionDetail, error) {
	sub, err := s.Get(ctx, submissionID, caller)
	if err != nil {
		return nil, err
	}
	detail := &domain.SubmissionDetail{Submission: sub}

	form, err := s.formRepo.GetByID(ctx, sub.FormID)
	if err != nil && !errors.Is(err, domain.ErrFormNotFound) {
		return nil, err
	}
	detail.Form = form

	if detail.Fields, err = s.formRepo.ListFields(ctx, sub.FormID); err != nil {
		return nil, err
	}
	if detail.Attachments, err = s.attRepo.ListBySubmission(ctx, sub.ID); err != nil {
		return nil, err
	}
	rec, err := s.valRepo.GetLatestBySubmission(ctx, sub.ID)
	switch {
	case err == nil:
		detail.Validation = rec
	case !errors.Is(err, domain.ErrValidationNotFound):
		return nil, err
	}
	return detail, nil
}

func (s *submissionService) GetLatestValidation(ctx context.Context, submissionID uuid.UUID, caller Caller) (*domain.ValidationRecord, error) {
	if _, err := s.Get(ctx, submissionID, caller); err != nil {
		return nil, err
	}
	return s.valRepo.GetLatestBySubmission(ctx, submissionID)
}

func (s *submissionService) ListBySubmitter(ctx context.Context, caller Caller, offset, limit int) ([]domain.Submission, int, error) {
	return s.subRepo.ListBySubmitter(ctx, caller.UserID, offset, limit)
}

func (s *submissionService) ListReviewQueue(ctx context.Context, caller Caller, offset, limit int) ([]domain.Submission, int, error) {
	if !caller.Role.CanReview() {
		return nil, 0, domain.ErrForbidden
	}
	return s.subRepo.ListByStatus(ctx, domain.SubmissionStatusSubmitted, offset, limit)
}

func (s *submissionService) ListReviews(ctx context.Context, submissionID uuid.UUID, caller Caller) ([]domain.ReviewEvent, error) {
	if _, err := s.Get(ctx, submissionID, caller); err != nil {
		return nil, err
	}
	return s.reviewRepo.ListBySubmission(ctx, submissionID)
}

func (s *submissionService) checkRequired(ctx context.Context, sub *domain.Submission) error {
	fields, err := s.formRepo.ListFields(ctx, sub.FormID)
	if err != nil {
		return fmt.Errorf("loading form fields: %w", err)
	}
	atts, err := s.attRepo.ListBySubmission(ctx, sub.ID)
	if err != nil {
		return fmt.Errorf("loading attachments: %w", err)
	}
	attached := make(map[uuid.UUID]bool, len(atts))
	for i := range atts {
		attached[atts[i].FieldID] = true
	}
	if missing := domain.MissingRequiredFields(fields, sub.Values, sub.Files, attached); missing != nil {
		return missing
	}
	return nil
}

// activeRecord returns the record linked to sub, falling back to the latest.
func (s *submissionService) activeRecord(ctx context.Context, sub *domain.Submission) (*domain.ValidationRecord, error) {
	if sub.AIValidationID != nil {
		rec, err := s.valRepo.GetByID(ctx, *sub.AIValidationID)
		if err == nil || !errors.Is(err, domain.ErrValidationNotFound) {
			return rec, err
		}
	}
	return s.valRepo.GetLatestBySubmission(ctx, sub.ID)
}

func (s *submissionService) dispatchInBackground(ctx context.Context, submissionID uuid.UUID) {
	if s.queue != nil {
		err := s.queue.Enqueue(ctx, submissionID)
		if err == nil {
			return
		}
		logger.Warnf("submissionService.dispatchInBackground: enqueue for %s failed, dispatching in-process: %v", submissionID, err)
	}
	s.runDispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.dispatchBudget)
		defer cancel()

		if err := s.dispatcher.Dispatch(ctx, submissionID); err != nil {
			logger.Warnf("submissionService.dispatchInBackground: dispatch for %s failed: %v", submissionID, err)
		}
	})
}

func (s *submissionService) appendLog(ctx context.Context, validationID uuid.UUID, event, detail string) {
	entry := &domain.ValidationLog{ValidationID: validationID, Event: event, Detail: detail}
	if err := s.valRepo.AppendLog(ctx, entry); err != nil {
		logger.Warnf("submissionService.appendLog: failed to write %s log for %s: %v", event, validationID, err)
	}
}

// conflictAsTransition turns a lost compare-and-set into a TransitionError
// reporting the status that won.
func (s *submissionService) conflictAsTransition(ctx context.Context, err error, sub *domain.Submission, trigger domain.Trigger) error {
	if !errors.Is(err, domain.ErrStatusConflict) {
		return err
	}
	from := sub.Status
	if current, getErr := s.subRepo.GetByID(ctx, sub.ID); getErr == nil {
		from = current.Status
	}
	return &domain.TransitionError{SubmissionID: sub.ID, From: from, To: domain.TargetStatus(trigger)}
}

func nonNilValues(v domain.FieldValues) domain.FieldValues {
	if v == nil {
		return domain.FieldValues{}
	}
	return v
}
