package domain

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxAttachmentSize is the largest accepted upload, 100MB.
const MaxAttachmentSize = 100 * 1024 * 1024

type Attachment struct {
	ID          uuid.UUID `json:"id" gorm:"type:varchar(36);primaryKey"`
	TicketID    uuid.UUID `json:"ticket_id" gorm:"type:varchar(36);not null;index"`
	Filename    string    `json:"filename" gorm:"type:varchar(255);not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	MimeType    string    `json:"mime_type" gorm:"type:varchar(255);not null"`
	StoragePath string    `json:"-" gorm:"type:varchar(1024);not null"`
	UploadedBy  uuid.UUID `json:"uploaded_by" gorm:"type:varchar(36);not null"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *Attachment) Validate() error {
	if err := ValidateFilename(a.Filename); err != nil {
		return err
	}
	if a.FileSize <= 0 {
		return Invalid("file_size", "must be positive")
	}
	if a.FileSize > MaxAttachmentSize {
		return Invalid("file_size", "cannot exceed 100MB")
	}
	if strings.TrimSpace(a.MimeType) == "" {
		return Invalid("mime_type", "cannot be empty")
	}
	if strings.TrimSpace(a.StoragePath) == "" {
		return Invalid("storage_path", "cannot be empty")
	}
	return nil
}

func ValidateFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return Invalid("filename", "cannot be empty")
	}
	if len(name) > 255 {
		return Invalid("filename", "must be 255 characters or less")
	}
	return nil
}

// Extension returns the lower-cased extension without the dot.
func (a *Attachment) Extension() string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(a.Filename)), ".")
}

func (a *Attachment) IsImage() bool {
	return strings.HasPrefix(a.MimeType, "image/")
}

type AttachmentUpdate struct {
	Filename *string
}
