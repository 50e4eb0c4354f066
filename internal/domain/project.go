package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID          uuid.UUID `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Description *string   `json:"description"`
	Color       *string   `json:"color" gorm:"type:varchar(32)"`
	Archived    bool      `json:"archived" gorm:"not null;default:false"`
	CreatedBy   uuid.UUID `json:"created_by" gorm:"type:varchar(36);not null;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Project) Validate() error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return Invalid("name", "cannot be empty")
	}
	if len(name) > 255 {
		return Invalid("name", "must be 255 characters or less")
	}
	if p.Description != nil && len(*p.Description) > 5000 {
		return Invalid("description", "must be 5000 characters or less")
	}
	if p.Color != nil && len(*p.Color) > 32 {
		return Invalid("color", "must be 32 characters or less")
	}
	return nil
}

type ProjectUpdate struct {
	Name        *string
	Description Optional[string]
	Color       Optional[string]
	Archived    *bool
}

func (u *ProjectUpdate) Apply(p *Project) {
	if u.Name != nil {
		p.Name = strings.TrimSpace(*u.Name)
	}
	u.Description.applyTo(&p.Description)
	u.Color.applyTo(&p.Color)
	if u.Archived != nil {
		p.Archived = *u.Archived
	}
}

// ProjectListOptions narrows a project listing.
type ProjectListOptions struct {
	IncludeArchived bool
	CreatedBy       *uuid.UUID
}
