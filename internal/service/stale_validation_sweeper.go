package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"veriform/internal/domain"
	"veriform/internal/logger"
	"veriform/internal/port"
)

// SweeperConfig holds settings for the stale validation sweeper.
type SweeperConfig struct {
	Interval   time.Duration
	StaleAfter time.Duration
	BatchSize  int
	// Schedule, when set, is a cron spec used instead of Interval.
	Schedule string
}

// StaleValidationSweeper fails validation records that stayed PENDING too
// long, so a lost dispatch or callback cannot pin a submission in
// PENDING_AI_VALIDATION.
type StaleValidationSweeper struct {
	valRepo     port.ValidationRepository
	submissions SubmissionService
	cfg         SweeperConfig
	now         func() time.Time
}

// NewStaleValidationSweeper creates a new StaleValidationSweeper.
func NewStaleValidationSweeper(valRepo port.ValidationRepository, submissions SubmissionService, cfg SweeperConfig) *StaleValidationSweeper {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &StaleValidationSweeper{
		valRepo:     valRepo,
		submissions: submissions,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Start runs the sweep loop until ctx is canceled.
func (w *StaleValidationSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	logger.Infof("staleValidationSweeper: started (interval=%s, staleAfter=%s, batch=%d)",
		w.cfg.Interval, w.cfg.StaleAfter, w.cfg.BatchSize)

	for {
		select {
		case <-ctx.Done():
			logger.Infof("staleValidationSweeper: shutdown complete")
			return
		case <-ticker.C:
			if _, err := w.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				logger.Errorf("staleValidationSweeper: sweep failed: %v", err)
			}
		}
	}
}

// Schedule runs SweepOnce on the configured cron spec until ctx is canceled.
// Overlapping runs are skipped.
func (w *StaleValidationSweeper) Schedule(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(w.cfg.Schedule, func() {
		if _, err := w.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Errorf("staleValidationSweeper: sweep failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("staleValidationSweeper: invalid schedule %q: %w", w.cfg.Schedule, err)
	}

	c.Start()
	logger.Infof("staleValidationSweeper: scheduled (%s, staleAfter=%s, batch=%d)", w.cfg.Schedule, w.cfg.StaleAfter, w.cfg.BatchSize)
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		logger.Infof("staleValidationSweeper: shutdown complete")
	}()
	return nil
}

// SweepOnce fails one batch of stale records and returns how many it failed.
func (w *StaleValidationSweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := w.now().Add(-w.cfg.StaleAfter)
	recs, err := w.valRepo.ListStalePending(ctx, cutoff, w.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range recs {
		rec := recs[i]
		id := rec.ID
		result := &domain.ValidationResult{
			SubmissionID: rec.SubmissionID,
			ValidationID: &id,
			Status:       domain.ValidationStatusFailed,
			ErrorType:    domain.ValidationErrorTimeout,
			ErrorMessage: fmt.Sprintf("no validation result received within %s", w.cfg.StaleAfter),
		}
		if _, err := w.submissions.CompleteValidation(ctx, result); err != nil {
			logger.Warnf("staleValidationSweeper: could not fail record %s for submission %s: %v", rec.ID, rec.SubmissionID, err)
			continue
		}
		w.appendLog(ctx, rec.ID)
		swept++
	}
	if swept > 0 {
		logger.Infof("staleValidationSweeper: marked %d stale validations as TIMEOUT", swept)
	}
	return swept, nil
}

func (w *StaleValidationSweeper) appendLog(ctx context.Context, validationID uuid.UUID) {
	entry := &domain.ValidationLog{ValidationID: validationID, Event: domain.ValidationLogSwept, Detail: w.cfg.StaleAfter.String()}
	if err := w.valRepo.AppendLog(ctx, entry); err != nil {
		logger.Warnf("staleValidationSweeper: failed to write log for %s: %v", validationID, err)
	}
}
