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

type attachmentRepo struct {
	db *sqlx.DB
}

// NewAttachmentRepo creates a new PostgreSQL-backed AttachmentRepository.
func NewAttachmentRepo(db *sqlx.DB) port.AttachmentRepository {
	return &attachmentRepo{db: db}
}

func (r *attachmentRepo) Create(ctx context.Context, att *domain.Attachment) error {
	att.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO file_attachments (
			id, submission_id, field_id, bucket, path, storage_path,
			file_name, file_size, mime_type, uploaded_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		att.ID, att.SubmissionID, att.FieldID, att.StorageArea, att.StoragePath, att.LegacyURL,
		att.FileName, att.Size, att.MimeType, att.UploadedBy, att.CreatedAt)
	if err != nil {
		return fmt.Errorf("attachmentRepo.Create: %w", err)
	}
	return nil
}

func (r *attachmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	var att domain.Attachment
	err := r.db.GetContext(ctx, &att, "SELECT * FROM file_attachments WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("attachmentRepo.GetByID: %w", err)
	}
	return &att, nil
}

func (r *attachmentRepo) GetBySubmissionAndField(ctx context.Context, submissionID, fieldID uuid.UUID) (*domain.Attachment, error) {
	var att domain.Attachment
	err := r.db.GetContext(ctx, &att,
		`SELECT * FROM file_attachments WHERE submission_id = $1 AND field_id = $2
		 ORDER BY created_at DESC LIMIT 1`, submissionID, fieldID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("attachmentRepo.GetBySubmissionAndField: %w", err)
	}
	return &att, nil
}

func (r *attachmentRepo) ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]domain.Attachment, error) {
	var atts []domain.Attachment
	err := r.db.SelectContext(ctx, &atts,
		"SELECT * FROM file_attachments WHERE submission_id = $1 ORDER BY created_at", submissionID)
	if err != nil {
		return nil, fmt.Errorf("attachmentRepo.ListBySubmission: %w", err)
	}
	return atts, nil
}

func (r *attachmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM file_attachments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("attachmentRepo.Delete: %w", err)
	}
	return nil
}
