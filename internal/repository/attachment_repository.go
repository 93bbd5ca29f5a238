package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// AttachmentRepository persists attachment blobs and their extracted text.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	// ListByTicket returns metadata and extracted text without the blob.
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.Attachment, error)
	// Get returns a single attachment including its blob.
	Get(ctx context.Context, ticketID, attachmentID int64) (*domain.Attachment, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO attachments (ticket_id, file_name, data, media_type, size_bytes, uploaded_by, uploaded_at,
                                 extracted_text, extraction_status, extraction_message)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id`
	err := r.pool.QueryRow(ctx, query,
		attachment.TicketID,
		attachment.FileName,
		attachment.Data,
		attachment.MediaType,
		attachment.SizeBytes,
		attachment.UploadedBy,
		attachment.UploadedAt,
		attachment.ExtractedText,
		attachment.ExtractionStatus,
		attachment.ExtractionMessage,
	).Scan(&attachment.ID)
	return mapErr(err)
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Attachment, error) {
	const query = `
        SELECT id, ticket_id, file_name, media_type, size_bytes, uploaded_by, uploaded_at,
               extracted_text, extraction_status, extraction_message
        FROM attachments WHERE ticket_id=$1 ORDER BY uploaded_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var attachment domain.Attachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.TicketID,
			&attachment.FileName,
			&attachment.MediaType,
			&attachment.SizeBytes,
			&attachment.UploadedBy,
			&attachment.UploadedAt,
			&attachment.ExtractedText,
			&attachment.ExtractionStatus,
			&attachment.ExtractionMessage,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}

func (r *attachmentRepository) Get(ctx context.Context, ticketID, attachmentID int64) (*domain.Attachment, error) {
	const query = `
        SELECT id, ticket_id, file_name, data, media_type, size_bytes, uploaded_by, uploaded_at,
               extracted_text, extraction_status, extraction_message
        FROM attachments WHERE ticket_id=$1 AND id=$2`
	var attachment domain.Attachment
	if err := r.pool.QueryRow(ctx, query, ticketID, attachmentID).Scan(
		&attachment.ID,
		&attachment.TicketID,
		&attachment.FileName,
		&attachment.Data,
		&attachment.MediaType,
		&attachment.SizeBytes,
		&attachment.UploadedBy,
		&attachment.UploadedAt,
		&attachment.ExtractedText,
		&attachment.ExtractionStatus,
		&attachment.ExtractionMessage,
	); err != nil {
		return nil, mapErr(err)
	}
	return &attachment, nil
}
