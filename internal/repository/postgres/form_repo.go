package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"veriform/internal/domain"
	"veriform/internal/port"
)

type formRepo struct {
	db *sqlx.DB
}

// NewFormRepo creates a new PostgreSQL-backed FormRepository.
func NewFormRepo(db *sqlx.DB) port.FormRepository {
	return &formRepo{db: db}
}

func (r *formRepo) GetByID(ctx context.Context, formID uuid.UUID) (*domain.Form, error) {
	var form domain.Form
	err := r.db.GetContext(ctx, &form, "SELECT * FROM forms WHERE id = $1", formID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrFormNotFound
		}
		return nil, fmt.Errorf("formRepo.GetByID: %w", err)
	}
	return &form, nil
}

func (r *formRepo) ListFields(ctx context.Context, formID uuid.UUID) ([]domain.FormField, error) {
	var fields []domain.FormField
	err := r.db.SelectContext(ctx, &fields,
		"SELECT * FROM form_fields WHERE form_id = $1 ORDER BY field_order, id", formID)
	if err != nil {
		return nil, fmt.Errorf("formRepo.ListFields: %w", err)
	}
	return fields, nil
}
