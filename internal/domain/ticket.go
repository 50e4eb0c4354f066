package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Ticket struct {
	ID            uuid.UUID    `json:"id" gorm:"type:varchar(36);primaryKey"`
	ProjectID     uuid.UUID    `json:"project_id" gorm:"type:varchar(36);not null"`
	Title         string       `json:"title" gorm:"type:varchar(500);not null"`
	Description   *string      `json:"description"`
	TicketType    TicketType   `json:"ticket_type" gorm:"type:varchar(16);not null"`
	Status        TicketStatus `json:"status" gorm:"type:varchar(16);not null"`
	Priority      Priority     `json:"priority" gorm:"type:varchar(16);not null"`
	AssigneeID    *uuid.UUID   `json:"assignee_id" gorm:"type:varchar(36)"`
	CreatedBy     uuid.UUID    `json:"created_by" gorm:"type:varchar(36);not null"`
	DueDate       *time.Time   `json:"due_date"`
	EstimateHours *float64     `json:"estimate_hours"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NewTicket fills the defaults a freshly reported ticket starts with.
func NewTicket(projectID uuid.UUID, title string, ticketType TicketType, createdBy uuid.UUID) *Ticket {
	return &Ticket{
		ProjectID:  projectID,
		Title:      title,
		TicketType: ticketType,
		Status:     StatusOpen,
		Priority:   PriorityMedium,
		CreatedBy:  createdBy,
	}
}

func (t *Ticket) Validate() error {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return Invalid("title", "cannot be empty")
	}
	if len(title) > 500 {
		return Invalid("title", "must be 500 characters or less")
	}
	if t.Description != nil && len(*t.Description) > 10000 {
		return Invalid("description", "must be 10000 characters or less")
	}
	if !t.TicketType.IsValid() {
		return Invalid("ticket_type", "invalid value")
	}
	if !t.Status.IsValid() {
		return Invalid("status", "invalid value")
	}
	if !t.Priority.IsValid() {
		return Invalid("priority", "invalid value")
	}
	if t.EstimateHours != nil && *t.EstimateHours < 0 {
		return Invalid("estimate_hours", "must be positive")
	}
	if t.ProjectID == uuid.Nil {
		return Invalid("project_id", "is required")
	}
	return nil
}

// SearchText is the denormalised text the search index is built from.
func (t *Ticket) SearchText() string {
	if t.Description == nil {
		return t.Title
	}
	return t.Title + "\n" + *t.Description
}

type AssigneeAction int

const (
	AssigneeUnchanged AssigneeAction = iota
	AssigneeUnassign
	AssigneeSet
)

// AssigneeUpdate makes "leave alone", "clear" and "assign to" explicit.
type AssigneeUpdate struct {
	Action AssigneeAction
	UserID uuid.UUID
}

func AssignTo(id uuid.UUID) AssigneeUpdate {
	return AssigneeUpdate{Action: AssigneeSet, UserID: id}
}

func Unassign() AssigneeUpdate {
	return AssigneeUpdate{Action: AssigneeUnassign}
}

type TicketUpdate struct {
	Title         *string
	Description   Optional[string]
	TicketType    *TicketType
	Status        *TicketStatus
	Priority      *Priority
	Assignee      AssigneeUpdate
	DueDate       Optional[time.Time]
	EstimateHours Optional[float64]
}

// Apply copies the supplied fields onto t. Unsupplied fields keep their
// current values.
func (u *TicketUpdate) Apply(t *Ticket) {
	if u.Title != nil {
		t.Title = strings.TrimSpace(*u.Title)
	}
	u.Description.applyTo(&t.Description)
	if u.TicketType != nil {
		t.TicketType = *u.TicketType
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	switch u.Assignee.Action {
	case AssigneeUnassign:
		t.AssigneeID = nil
	case AssigneeSet:
		id := u.Assignee.UserID
		t.AssigneeID = &id
	}
	u.DueDate.applyTo(&t.DueDate)
	u.EstimateHours.applyTo(&t.EstimateHours)
}

// TouchesSearchText reports whether applying u may change the indexed text.
func (u *TicketUpdate) TouchesSearchText() bool {
	return u.Title != nil || u.Description.Set
}
