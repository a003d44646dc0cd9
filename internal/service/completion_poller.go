package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"veriform/internal/domain"
	"veriform/internal/logger"
	"veriform/internal/port"
)

// PollKind tells how a wait ended.
type PollKind int

// PollFailed is the zero value and accompanies an error from Wait.
const (
	PollFailed PollKind = iota
	PollCompleted
	PollGaveUp
)

func (k PollKind) String() string {
	switch k {
	case PollCompleted:
		return "completed"
	case PollGaveUp:
		return "gave_up"
	default:
		return "failed"
	}
}

// PollOutcome is the result of CompletionPoller.Wait. Record and Submission
// are set only for PollCompleted.
type PollOutcome struct {
	Kind       PollKind
	Attempts   int
	Record     *domain.ValidationRecord
	Submission *domain.Submission
}

// PollerConfig holds the polling cadence.
type PollerConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// CompletionWaiter blocks until a submission's validation resolves or the
// attempts run out.
type CompletionWaiter interface {
	Wait(ctx context.Context, submissionID uuid.UUID) (PollOutcome, error)
}

// CompletionPoller waits for a validation record to resolve.
type CompletionPoller struct {
	valRepo     port.ValidationRepository
	submissions SubmissionService
	cfg         PollerConfig
}

// NewCompletionPoller creates a new CompletionPoller.
func NewCompletionPoller(valRepo port.ValidationRepository, submissions SubmissionService, cfg PollerConfig) *CompletionPoller {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 20
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Second
	}
	return &CompletionPoller{valRepo: valRepo, submissions: submissions, cfg: cfg}
}

// Wait fetches the latest record for submissionID up to MaxAttempts times,
// Interval apart. When the record resolves the submission is reconciled and
// reloaded. Giving up changes nothing remotely. A fetch error or ctx
// cancellation ends the wait with that error.
func (p *CompletionPoller) Wait(ctx context.Context, submissionID uuid.UUID) (PollOutcome, error) {
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		rec, err := p.valRepo.GetLatestBySubmission(ctx, submissionID)
		if err != nil {
			return PollOutcome{Kind: PollFailed, Attempts: attempt}, err
		}

		if rec.Status.IsResolved() {
			sub, err := p.submissions.Reconcile(ctx, submissionID)
			if err != nil {
				return PollOutcome{Kind: PollFailed, Attempts: attempt}, err
			}
			logger.Debugf("completionPoller.Wait: %s resolved as %s after %d attempts", submissionID, rec.Status, attempt)
			return PollOutcome{Kind: PollCompleted, Attempts: attempt, Record: rec, Submission: sub}, nil
		}

		if attempt == p.cfg.MaxAttempts {
			break
		}
		if err := sleepCtx(ctx, p.cfg.Interval); err != nil {
			return PollOutcome{Kind: PollFailed, Attempts: attempt}, err
		}
	}

	logger.Infof("completionPoller.Wait: gave up on %s after %d attempts", submissionID, p.cfg.MaxAttempts)
	return PollOutcome{Kind: PollGaveUp, Attempts: p.cfg.MaxAttempts}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
