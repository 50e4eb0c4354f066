package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID `json:"id" gorm:"type:varchar(36);primaryKey"`
	TicketID  uuid.UUID `json:"ticket_id" gorm:"type:varchar(36);not null;index"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:varchar(36);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Comment) Validate() error {
	return ValidateCommentContent(c.Content)
}

func ValidateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return Invalid("content", "cannot be empty")
	}
	if len(content) > 10000 {
		return Invalid("content", "cannot exceed 10000 characters")
	}
	return nil
}
