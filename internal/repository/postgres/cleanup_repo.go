package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"veriform/internal/domain"
	"veriform/internal/port"
)

type cleanupRepo struct {
	db *sqlx.DB
}

// NewCleanupRepo creates a new PostgreSQL-backed CleanupRepository.
func NewCleanupRepo(db *sqlx.DB) port.CleanupRepository {
	return &cleanupRepo{db: db}
}

func (r *cleanupRepo) DeleteDocumentValidations(ctx context.Context, submissionID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM document_validations WHERE submission_id = $1", submissionID)
	if err != nil {
		return fmt.Errorf("cleanupRepo.DeleteDocumentValidations: %w", err)
	}
	return nil
}

func (r *cleanupRepo) CallDeleteProcedure(ctx context.Context, submissionID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "SELECT delete_user_submission($1)", submissionID)
	if err != nil {
		if isPgCode(err, pgUndefinedFunction) {
			return domain.ErrProcedureUnavailable
		}
		return fmt.Errorf("cleanupRepo.CallDeleteProcedure: %w", err)
	}
	return nil
}
