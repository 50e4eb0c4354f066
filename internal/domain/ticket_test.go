package domain_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dom/worknest/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewTicketDefaults(t *testing.T) {
	ticket := domain.NewTicket(uuid.New(), "Test Ticket", domain.TicketTypeTask, uuid.New())

	assert.Equal(t, domain.StatusOpen, ticket.Status)
	assert.Equal(t, domain.PriorityMedium, ticket.Priority)
	assert.Nil(t, ticket.AssigneeID)
	assert.NoError(t, ticket.Validate())
}

func TestTicketValidate(t *testing.T) {
	negative := -1.5
	tests := []struct {
		name   string
		mutate func(*domain.Ticket)
		field  string
	}{
		{name: "empty title", mutate: func(tk *domain.Ticket) { tk.Title = "   " }, field: "title"},
		{name: "long title", mutate: func(tk *domain.Ticket) { tk.Title = strings.Repeat("a", 501) }, field: "title"},
		{name: "long description", mutate: func(tk *domain.Ticket) { tk.Description = strPtr(strings.Repeat("a", 10001)) }, field: "description"},
		{name: "bad status", mutate: func(tk *domain.Ticket) { tk.Status = "Finished" }, field: "status"},
		{name: "negative estimate", mutate: func(tk *domain.Ticket) { tk.EstimateHours = &negative }, field: "estimate_hours"},
		{name: "missing project", mutate: func(tk *domain.Ticket) { tk.ProjectID = uuid.Nil }, field: "project_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := domain.NewTicket(uuid.New(), "Valid", domain.TicketTypeBug, uuid.New())
			tt.mutate(ticket)

			err := ticket.Validate()
			require.ErrorIs(t, err, domain.ErrValidation)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestTicketUpdateApply(t *testing.T) {
	assignee := uuid.New()
	ticket := domain.NewTicket(uuid.New(), "Fix footer", domain.TicketTypeBug, uuid.New())
	ticket.Description = strPtr("footer overlaps")
	ticket.AssigneeID = &assignee

	done := domain.StatusDone
	update := domain.TicketUpdate{Status: &done}
	update.Apply(ticket)

	assert.Equal(t, domain.StatusDone, ticket.Status)
	assert.Equal(t, "Fix footer", ticket.Title)
	require.NotNil(t, ticket.Description)
	assert.Equal(t, "footer overlaps", *ticket.Description)
	assert.Equal(t, &assignee, ticket.AssigneeID)
	assert.False(t, update.TouchesSearchText())

	clearing := domain.TicketUpdate{Description: domain.Null[string](), Assignee: domain.Unassign()}
	clearing.Apply(ticket)
	assert.Nil(t, ticket.Description)
	assert.Nil(t, ticket.AssigneeID)
	assert.True(t, clearing.TouchesSearchText())

	other := uuid.New()
	reassign := domain.TicketUpdate{Assignee: domain.AssignTo(other)}
	reassign.Apply(ticket)
	require.NotNil(t, ticket.AssigneeID)
	assert.Equal(t, other, *ticket.AssigneeID)
}

func TestOptionalUnmarshal(t *testing.T) {
	var payload struct {
		Description domain.Optional[string]    `json:"description"`
		DueDate     domain.Optional[time.Time] `json:"due_date"`
		Estimate    domain.Optional[float64]   `json:"estimate_hours"`
	}

	err := json.Unmarshal([]byte(`{"description":null,"estimate_hours":2.5}`), &payload)
	require.NoError(t, err)

	assert.True(t, payload.Description.Set)
	assert.True(t, payload.Description.Null)
	assert.False(t, payload.DueDate.Set)
	assert.True(t, payload.Estimate.Set)
	assert.False(t, payload.Estimate.Null)
	assert.Equal(t, 2.5, payload.Estimate.Value)
}

func TestAttachmentValidate(t *testing.T) {
	valid := domain.Attachment{
		Filename:    "screenshot.PNG",
		FileSize:    1024,
		MimeType:    "image/png",
		StoragePath: "uploads/01H.png",
	}
	require.NoError(t, valid.Validate())
	assert.Equal(t, "png", valid.Extension())
	assert.True(t, valid.IsImage())

	tooBig := valid
	tooBig.FileSize = domain.MaxAttachmentSize + 1
	assert.ErrorIs(t, tooBig.Validate(), domain.ErrValidation)

	empty := valid
	empty.FileSize = 0
	assert.ErrorIs(t, empty.Validate(), domain.ErrValidation)
}

func TestUserValidate(t *testing.T) {
	assert.NoError(t, (&domain.User{Username: "alice", Email: "alice@x.com"}).Validate())
	assert.ErrorIs(t, (&domain.User{Username: "ab", Email: "ab@x.com"}).Validate(), domain.ErrValidation)
	assert.ErrorIs(t, (&domain.User{Username: "alice", Email: "alice.x.com"}).Validate(), domain.ErrValidation)
}
