package repositories

import (
	"context"
	"fmt"

	"shift-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AttachmentRepository struct {
	DB *pgxpool.Pool
}

func NewAttachmentRepository(db *pgxpool.Pool) *AttachmentRepository {
	return &AttachmentRepository{DB: db}
}

func (r *AttachmentRepository) Create(ctx context.Context, a *models.Attachment) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO attachments(object_key, file_name, content_type, uploaded_by)
         VALUES($1, $2, $3, $4)
         RETURNING id, created_at`,
		a.ObjectKey, a.FileName, a.ContentType, a.UploadedBy,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting attachment: %w", err)
	}
	return nil
}

// LinkToCleaning associates previously uploaded attachments with a completed
// cleaning. Already-linked attachments are left alone; the number of rows
// actually linked is returned so callers can surface partial linkage.
func (r *AttachmentRepository) LinkToCleaning(ctx context.Context, cleaningEventID int, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.DB.Exec(ctx,
		`UPDATE attachments SET cleaning_event_id=$1
         WHERE id = ANY($2) AND cleaning_event_id IS NULL`,
		cleaningEventID, ids)
	if err != nil {
		return 0, fmt.Errorf("linking attachments to cleaning %d: %w", cleaningEventID, err)
	}
	return int(tag.RowsAffected()), nil
}

// ListByCleaning returns the attachments linked to a cleaning start event.
func (r *AttachmentRepository) ListByCleaning(ctx context.Context, cleaningEventID int) ([]*models.Attachment, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, cleaning_event_id, object_key, file_name, content_type, uploaded_by, created_at
         FROM attachments WHERE cleaning_event_id=$1 ORDER BY created_at`,
		cleaningEventID)
	if err != nil {
		return nil, fmt.Errorf("listing attachments for cleaning %d: %w", cleaningEventID, err)
	}
	defer rows.Close()

	var attachments []*models.Attachment
	for rows.Next() {
		var a models.Attachment
		err := rows.Scan(&a.ID, &a.CleaningEventID, &a.ObjectKey, &a.FileName,
			&a.ContentType, &a.UploadedBy, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning attachment row: %w", err)
		}
		attachments = append(attachments, &a)
	}
	return attachments, rows.Err()
}
