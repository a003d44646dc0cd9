package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"veriform/internal/domain"
	"veriform/internal/logger"
	"veriform/internal/port"
)

// Cleanup step names.
const (
	StepValidationLogs      = "validation_logs"
	StepValidationRecord    = "validation_record"
	StepDocumentValidations = "document_validations"
	StepAttachmentObject    = "attachment_object"
	StepAttachmentRow       = "attachment_row"
	StepAttachmentResolve   = "attachment_resolve"
	StepDeleteProcedure     = "delete_procedure"
	StepSubmissionRow       = "submission_row"
)

// Cleanup modes.
const (
	CleanupModeClient    = "client"
	CleanupModeProcedure = "procedure"
)

// StepResult is the outcome of one cleanup action.
type StepResult struct {
	Name   string `json:"name"`
	Target string `json:"target"`
	Err    error  `json:"-"`
}

// CleanupReport lists what a delete did. Failed steps before the final one
// never abort the delete.
type CleanupReport struct {
	SubmissionID uuid.UUID    `json:"submission_id"`
	Mode         string       `json:"mode"`
	Existed      bool         `json:"existed"`
	Steps        []StepResult `json:"steps"`
}

func (r *CleanupReport) record(name, target string, err error) {
	r.Steps = append(r.Steps, StepResult{Name: name, Target: target, Err: err})
}

// Failures returns the steps that did not succeed.
func (r *CleanupReport) Failures() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// PartialFailure reports whether any best-effort step failed.
func (r *CleanupReport) PartialFailure() bool {
	return len(r.Failures()) > 0
}

// Err aggregates every failed step, or nil.
func (r *CleanupReport) Err() error {
	var result *multierror.Error
	for _, s := range r.Failures() {
		result = multierror.Append(result, fmt.Errorf("%s %s: %w", s.Name, s.Target, s.Err))
	}
	return result.ErrorOrNil()
}

// CleanupService deletes a submission and everything hanging off it.
type CleanupService interface {
	Delete(ctx context.Context, submissionID uuid.UUID, caller Caller) (*CleanupReport, error)
}

type cleanupService struct {
	subRepo     port.SubmissionRepository
	valRepo     port.ValidationRepository
	attRepo     port.AttachmentRepository
	cleanupRepo port.CleanupRepository
	storage     port.ObjectStorage
	locator     *AttachmentLocator
	useRPC      bool
}

// NewCleanupService creates a new CleanupService implementation. With useRPC
// the row cascade runs in the database procedure when it is installed.
func NewCleanupService(
	subRepo port.SubmissionRepository,
	valRepo port.ValidationRepository,
	attRepo port.AttachmentRepository,
	cleanupRepo port.CleanupRepository,
	storage port.ObjectStorage,
	locator *AttachmentLocator,
	useRPC bool,
) CleanupService {
	return &cleanupService{
		subRepo:     subRepo,
		valRepo:     valRepo,
		attRepo:     attRepo,
		cleanupRepo: cleanupRepo,
		storage:     storage,
		locator:     locator,
		useRPC:      useRPC,
	}
}

func (s *cleanupService) Delete(ctx context.Context, submissionID uuid.UUID, caller Caller) (*CleanupReport, error) {
	report := &CleanupReport{SubmissionID: submissionID, Mode: CleanupModeClient}

	sub, err := s.subRepo.GetByID(ctx, submissionID)
	switch {
	case err == nil:
		report.Existed = true
		if err := caller.requireView(sub); err != nil {
			return nil, err
		}
	case errors.Is(err, domain.ErrSubmissionNotFound):
		// Leftovers of a missing submission are swept only for reviewers.
		if !caller.Role.CanReview() {
			logger.Infof("cleanupService.Delete: submission %s already gone, nothing to do", submissionID)
			return report, nil
		}
	default:
		return nil, err
	}

	logger.Infof("cleanupService.Delete: deleting submission %s (existed=%v, rpc=%v)", submissionID, report.Existed, s.useRPC)

	if s.useRPC {
		done, err := s.deleteWithProcedure(ctx, submissionID, report)
		if done {
			s.logFailures(report)
			return report, err
		}
		report.Mode = CleanupModeClient
	}

	s.deleteValidations(ctx, submissionID, report)
	s.deleteDocumentValidations(ctx, submissionID, report)
	s.deleteAttachments(ctx, submissionID, report, true)

	err = s.subRepo.Delete(ctx, submissionID)
	report.record(StepSubmissionRow, submissionID.String(), err)
	s.logFailures(report)
	if err != nil {
		return report, &domain.CleanupFatalError{SubmissionID: submissionID, Err: err}
	}
	return report, nil
}

// deleteWithProcedure removes storage objects, then lets the database
// cascade the rows. done is false when the procedure is not installed.
func (s *cleanupService) deleteWithProcedure(ctx context.Context, submissionID uuid.UUID, report *CleanupReport) (done bool, err error) {
	report.Mode = CleanupModeProcedure
	s.deleteAttachments(ctx, submissionID, report, false)

	err = s.cleanupRepo.CallDeleteProcedure(ctx, submissionID)
	if errors.Is(err, domain.ErrProcedureUnavailable) {
		logger.Warnf("cleanupService.Delete: delete procedure not installed, falling back to client cascade for %s", submissionID)
		return false, nil
	}
	report.record(StepDeleteProcedure, submissionID.String(), err)
	if err != nil {
		return true, &domain.CleanupFatalError{SubmissionID: submissionID, Err: err}
	}
	return true, nil
}

func (s *cleanupService) deleteValidations(ctx context.Context, submissionID uuid.UUID, report *CleanupReport) {
	recs, err := s.valRepo.ListBySubmission(ctx, submissionID)
	if err != nil {
		report.record(StepValidationRecord, submissionID.String(), err)
		return
	}
	for i := range recs {
		id := recs[i].ID
		if err := s.valRepo.DeleteLogs(ctx, id); err != nil {
			report.record(StepValidationLogs, id.String(), err)
			continue
		}
		report.record(StepValidationLogs, id.String(), nil)
		report.record(StepValidationRecord, id.String(), s.valRepo.Delete(ctx, id))
	}
}

func (s *cleanupService) deleteDocumentValidations(ctx context.Context, submissionID uuid.UUID, report *CleanupReport) {
	report.record(StepDocumentValidations, submissionID.String(),
		s.cleanupRepo.DeleteDocumentValidations(ctx, submissionID))
}

// deleteAttachments removes each attachment's object, and its row when withRows.
// Rows whose object could not be removed are kept so a later run can retry.
func (s *cleanupService) deleteAttachments(ctx context.Context, submissionID uuid.UUID, report *CleanupReport, withRows bool) {
	atts, err := s.attRepo.ListBySubmission(ctx, submissionID)
	if err != nil {
		report.record(StepAttachmentRow, submissionID.String(), err)
		return
	}
	for i := range atts {
		att := &atts[i]
		ref, ok := s.locator.Resolve(att)
		if !ok {
			report.record(StepAttachmentResolve, att.ID.String(),
				fmt.Errorf("%w: attachment %s", domain.ErrStorageRefUnresolvable, att.ID))
		} else {
			target := ref.Area + "/" + ref.Path
			if err := s.storage.Delete(ctx, ref.Area, ref.Path); err != nil {
				report.record(StepAttachmentObject, target, err)
				continue
			}
			report.record(StepAttachmentObject, target, nil)
		}
		if withRows {
			report.record(StepAttachmentRow, att.ID.String(), s.attRepo.Delete(ctx, att.ID))
		}
	}
}

func (s *cleanupService) logFailures(report *CleanupReport) {
	failures := report.Failures()
	if len(failures) == 0 {
		return
	}
	names := make([]string, 0, len(failures))
	for _, f := range failures {
		names = append(names, f.Name+":"+f.Target)
	}
	logger.Warn().
		Str("submission_id", report.SubmissionID.String()).
		Str("mode", report.Mode).
		Int("failed_steps", len(failures)).
		Str("steps", strings.Join(names, ",")).
		Err(report.Err()).
		Msg("cleanupService.Delete: cleanup finished with partial failures")
}
