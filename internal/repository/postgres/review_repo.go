package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"veriform/internal/domain"
	"veriform/internal/port"
)

type reviewRepo struct {
	db *sqlx.DB
}

// NewReviewRepo creates a new PostgreSQL-backed ReviewRepository.
func NewReviewRepo(db *sqlx.DB) port.ReviewRepository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]domain.ReviewEvent, error) {
	var events []domain.ReviewEvent
	err := r.db.SelectContext(ctx, &events,
		"SELECT * FROM audit_reviews WHERE submission_id = $1 ORDER BY created_at", submissionID)
	if err != nil {
		return nil, fmt.Errorf("reviewRepo.ListBySubmission: %w", err)
	}
	return events, nil
}
