package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"veriform/internal/domain"
	"veriform/internal/port"
)

type validationRepo struct {
	db *sqlx.DB
}

// NewValidationRepo creates a new PostgreSQL-backed ValidationRepository.
func NewValidationRepo(db *sqlx.DB) port.ValidationRepository {
	return &validationRepo{db: db}
}

func insertValidation(ctx context.Context, q sqlx.ExecerContext, rec *domain.ValidationRecord) error {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	_, err := q.ExecContext(ctx,
		`INSERT INTO ai_validations (
			id, submission_id, status, overall_score, recommendation,
			ai_results, issues_found, error_type, error_message,
			retry_count, last_retry_at, n8n_execution_id, processed_at,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15
		)`,
		rec.ID, rec.SubmissionID, rec.Status, rec.OverallScore, rec.Recommendation,
		rec.AIResults, rec.IssuesFound, rec.ErrorType, rec.ErrorMessage,
		rec.RetryCount, rec.LastRetryAt, rec.ExecutionID, rec.ProcessedAt,
		rec.CreatedAt, rec.UpdatedAt)
	return err
}

func updateValidation(ctx context.Context, q sqlx.ExecerContext, rec *domain.ValidationRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	result, err := q.ExecContext(ctx,
		`UPDATE ai_validations SET
			status = $1, overall_score = $2, recommendation = $3,
			ai_results = $4, issues_found = $5, error_type = $6, error_message = $7,
			retry_count = $8, last_retry_at = $9, n8n_execution_id = $10,
			processed_at = $11, updated_at = $12
		 WHERE id = $13`,
		rec.Status, rec.OverallScore, rec.Recommendation,
		rec.AIResults, rec.IssuesFound, rec.ErrorType, rec.ErrorMessage,
		rec.RetryCount, rec.LastRetryAt, rec.ExecutionID,
		rec.ProcessedAt, rec.UpdatedAt,
		rec.ID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrValidationNotFound
	}
	return nil
}

func (r *validationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ValidationRecord, error) {
	var rec domain.ValidationRecord
	err := r.db.GetContext(ctx, &rec, "SELECT * FROM ai_validations WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrValidationNotFound
		}
		return nil, fmt.Errorf("validationRepo.GetByID: %w", err)
	}
	return &rec, nil
}

func (r *validationRepo) GetLatestBySubmission(ctx context.Context, submissionID uuid.UUID) (*domain.ValidationRecord, error) {
	var rec domain.ValidationRecord
	err := r.db.GetContext(ctx, &rec,
		`SELECT * FROM ai_validations WHERE submission_id = $1
		 ORDER BY created_at DESC LIMIT 1`, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrValidationNotFound
		}
		return nil, fmt.Errorf("validationRepo.GetLatestBySubmission: %w", err)
	}
	return &rec, nil
}

func (r *validationRepo) ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]domain.ValidationRecord, error) {
	var recs []domain.ValidationRecord
	err := r.db.SelectContext(ctx, &recs,
		"SELECT * FROM ai_validations WHERE submission_id = $1 ORDER BY created_at", submissionID)
	if err != nil {
		return nil, fmt.Errorf("validationRepo.ListBySubmission: %w", err)
	}
	return recs, nil
}

func (r *validationRepo) ListStalePending(ctx context.Context, before time.Time, limit int) ([]domain.ValidationRecord, error) {
	var recs []domain.ValidationRecord
	err := r.db.SelectContext(ctx, &recs,
		`SELECT * FROM ai_validations WHERE status = $1 AND updated_at < $2
		 ORDER BY updated_at LIMIT $3`,
		domain.ValidationStatusPending, before, limit)
	if err != nil {
		return nil, fmt.Errorf("validationRepo.ListStalePending: %w", err)
	}
	return recs, nil
}

func (r *validationRepo) Update(ctx context.Context, rec *domain.ValidationRecord) error {
	if err := updateValidation(ctx, r.db, rec); err != nil {
		if errors.Is(err, domain.ErrValidationNotFound) {
			return err
		}
		return fmt.Errorf("validationRepo.Update: %w", err)
	}
	return nil
}

func (r *validationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM ai_validations WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("validationRepo.Delete: %w", err)
	}
	return nil
}

func (r *validationRepo) AppendLog(ctx context.Context, entry *domain.ValidationLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ai_validation_logs (id, validation_id, event, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.ValidationID, entry.Event, entry.Detail, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("validationRepo.AppendLog: %w", err)
	}
	return nil
}

func (r *validationRepo) ListLogs(ctx context.Context, validationID uuid.UUID) ([]domain.ValidationLog, error) {
	var logs []domain.ValidationLog
	err := r.db.SelectContext(ctx, &logs,
		"SELECT * FROM ai_validation_logs WHERE validation_id = $1 ORDER BY created_at", validationID)
	if err != nil {
		return nil, fmt.Errorf("validationRepo.ListLogs: %w", err)
	}
	return logs, nil
}

func (r *validationRepo) DeleteLogs(ctx context.Context, validationID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM ai_validation_logs WHERE validation_id = $1", validationID)
	if err != nil {
		return fmt.Errorf("validationRepo.DeleteLogs: %w", err)
	}
	return nil
}
