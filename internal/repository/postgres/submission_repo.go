package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"veriform/internal/domain"
	"veriform/internal/port"
)

type submissionRepo struct {
	db *sqlx.DB
}

// NewSubmissionRepo creates a new PostgreSQL-backed SubmissionRepository.
func NewSubmissionRepo(db *sqlx.DB) port.SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) Create(ctx context.Context, sub *domain.Submission) error {
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	query := `INSERT INTO form_submissions (
		id, form_id, target_id, submitted_by,
		values_json, raw_values_json, files_json,
		status, ai_validation_id, created_at, submitted_at, updated_at
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7,
		$8, $9, $10, $11, $12
	)`

	_, err := r.db.ExecContext(ctx, query,
		sub.ID, sub.FormID, sub.TargetID, sub.SubmittedBy,
		sub.Values, sub.RawValues, sub.Files,
		sub.Status, sub.AIValidationID, sub.CreatedAt, sub.SubmittedAt, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("submissionRepo.Create: %w", err)
	}
	return nil
}

func (r *submissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	var sub domain.Submission
	err := r.db.GetContext(ctx, &sub, "SELECT * FROM form_submissions WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("submissionRepo.GetByID: %w", err)
	}
	return &sub, nil
}

func (r *submissionRepo) ListBySubmitter(ctx context.Context, userID uuid.UUID, offset, limit int) ([]domain.Submission, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM form_submissions WHERE submitted_by = $1", userID)
	if err != nil {
		return nil, 0, fmt.Errorf("submissionRepo.ListBySubmitter count: %w", err)
	}

	var subs []domain.Submission
	err = r.db.SelectContext(ctx, &subs,
		`SELECT * FROM form_submissions WHERE submitted_by = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("submissionRepo.ListBySubmitter: %w", err)
	}
	return subs, total, nil
}

func (r *submissionRepo) ListByStatus(ctx context.Context, status domain.SubmissionStatus, offset, limit int) ([]domain.Submission, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM form_submissions WHERE status = $1", status)
	if err != nil {
		return nil, 0, fmt.Errorf("submissionRepo.ListByStatus count: %w", err)
	}

	var subs []domain.Submission
	err = r.db.SelectContext(ctx, &subs,
		`SELECT * FROM form_submissions WHERE status = $1
		 ORDER BY created_at ASC LIMIT $2 OFFSET $3`,
		status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("submissionRepo.ListByStatus: %w", err)
	}
	return subs, total, nil
}

func (r *submissionRepo) UpdateValues(ctx context.Context, sub *domain.Submission) error {
	sub.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE form_submissions SET
			values_json = $1, raw_values_json = $2, updated_at = $3
		 WHERE id = $4 AND status = $5`,
		sub.Values, sub.RawValues, sub.UpdatedAt,
		sub.ID, domain.SubmissionStatusDraft)
	if err != nil {
		return fmt.Errorf("submissionRepo.UpdateValues: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return r.missingOrConflict(ctx, r.db, sub.ID)
	}
	return nil
}

func (r *submissionRepo) UpdateFileRef(ctx context.Context, submissionID, fieldID uuid.UUID, ref *domain.FileRef) error {
	now := time.Now().UTC()
	var (
		result sql.Result
		err    error
	)
	if ref == nil {
		result, err = r.db.ExecContext(ctx,
			`UPDATE form_submissions SET
				files_json = COALESCE(files_json, '{}'::jsonb) - $1::text, updated_at = $2
			 WHERE id = $3 AND status = $4`,
			fieldID.String(), now, submissionID, domain.SubmissionStatusDraft)
	} else {
		raw, mErr := json.Marshal(ref)
		if mErr != nil {
			return fmt.Errorf("submissionRepo.UpdateFileRef: %w", mErr)
		}
		result, err = r.db.ExecContext(ctx,
			`UPDATE form_submissions SET
				files_json = jsonb_set(COALESCE(files_json, '{}'::jsonb), ARRAY[$1::text], $2::jsonb), updated_at = $3
			 WHERE id = $4 AND status = $5`,
			fieldID.String(), string(raw), now, submissionID, domain.SubmissionStatusDraft)
	}
	if err != nil {
		return fmt.Errorf("submissionRepo.UpdateFileRef: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return r.missingOrConflict(ctx, r.db, submissionID)
	}
	return nil
}

func (r *submissionRepo) UpdateStatus(ctx context.Context, sub *domain.Submission, from domain.SubmissionStatus) error {
	return r.casStatus(ctx, r.db, sub, from)
}

func (r *submissionRepo) BeginValidation(ctx context.Context, sub *domain.Submission, rec *domain.ValidationRecord) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		sub.UpdatedAt = time.Now().UTC()
		result, err := tx.ExecContext(ctx,
			`UPDATE form_submissions SET
				values_json = $1, raw_values_json = $2,
				status = $3, ai_validation_id = $4, updated_at = $5
			 WHERE id = $6 AND status = $7`,
			sub.Values, sub.RawValues,
			sub.Status, rec.ID, sub.UpdatedAt,
			sub.ID, domain.SubmissionStatusDraft)
		if err != nil {
			return fmt.Errorf("submissionRepo.BeginValidation update: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return r.missingOrConflict(ctx, tx, sub.ID)
		}
		if err := insertValidation(ctx, tx, rec); err != nil {
			return fmt.Errorf("submissionRepo.BeginValidation insert: %w", err)
		}
		sub.AIValidationID = &rec.ID
		return nil
	})
}

func (r *submissionRepo) RestartValidation(ctx context.Context, sub *domain.Submission, rec *domain.ValidationRecord) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		sub.AIValidationID = &rec.ID
		if err := r.casStatus(ctx, tx, sub, domain.SubmissionStatusAIValidationFailed); err != nil {
			return err
		}
		if err := updateValidation(ctx, tx, rec); err != nil {
			return fmt.Errorf("submissionRepo.RestartValidation: %w", err)
		}
		return nil
	})
}

func (r *submissionRepo) ResolveValidation(ctx context.Context, sub *domain.Submission, from domain.SubmissionStatus, rec *domain.ValidationRecord) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := updateValidation(ctx, tx, rec); err != nil {
			return fmt.Errorf("submissionRepo.ResolveValidation: %w", err)
		}
		return r.casStatus(ctx, tx, sub, from)
	})
}

func (r *submissionRepo) AppendReview(ctx context.Context, sub *domain.Submission, event *domain.ReviewEvent) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := r.casStatus(ctx, tx, sub, domain.SubmissionStatusSubmitted); err != nil {
			return err
		}
		event.CreatedAt = time.Now().UTC()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO audit_reviews (id, submission_id, reviewer_id, decision, comments, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			event.ID, event.SubmissionID, event.ReviewerID, event.Decision, event.Comment, event.CreatedAt)
		if err != nil {
			return fmt.Errorf("submissionRepo.AppendReview: %w", err)
		}
		return nil
	})
}

func (r *submissionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM form_submissions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("submissionRepo.Delete: %w", err)
	}
	return nil
}

// casStatus writes sub.Status only if the stored status is still from.
func (r *submissionRepo) casStatus(ctx context.Context, q sqlx.ExtContext, sub *domain.Submission, from domain.SubmissionStatus) error {
	sub.UpdatedAt = time.Now().UTC()
	result, err := q.ExecContext(ctx,
		`UPDATE form_submissions SET
			status = $1, ai_validation_id = $2, submitted_at = $3, updated_at = $4
		 WHERE id = $5 AND status = $6`,
		sub.Status, sub.AIValidationID, sub.SubmittedAt, sub.UpdatedAt,
		sub.ID, from)
	if err != nil {
		return fmt.Errorf("submissionRepo.casStatus: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return r.missingOrConflict(ctx, q, sub.ID)
	}
	return nil
}

func (r *submissionRepo) missingOrConflict(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) error {
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists,
		"SELECT EXISTS(SELECT 1 FROM form_submissions WHERE id = $1)", id); err != nil {
		return fmt.Errorf("submissionRepo.exists: %w", err)
	}
	if !exists {
		return domain.ErrSubmissionNotFound
	}
	return domain.ErrStatusConflict
}
