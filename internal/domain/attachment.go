package domain

import "time"

// ExtractionStatus records how text extraction went for an attachment.
type ExtractionStatus string

const (
	ExtractionOK          ExtractionStatus = "ok"
	ExtractionUnsupported ExtractionStatus = "unsupported"
	ExtractionFailed      ExtractionStatus = "failed"
)

// Attachment is an uploaded blob owned by its ticket.
type Attachment struct {
	ID                int64
	TicketID          int64
	FileName          string
	Data              []byte
	MediaType         string
	SizeBytes         int64
	UploadedBy        int64
	UploadedAt        time.Time
	ExtractedText     string
	ExtractionStatus  ExtractionStatus
	ExtractionMessage string
}
