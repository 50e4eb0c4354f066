package domain_test

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/dom/worknest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTicketStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    domain.TicketStatus
		wantErr bool
	}{
		{input: "Open", want: domain.StatusOpen},
		{input: "open", want: domain.StatusOpen},
		{input: "InProgress", want: domain.StatusInProgress},
		{input: "in_progress", want: domain.StatusInProgress},
		{input: "In Progress", want: domain.StatusInProgress},
		{input: "DONE", want: domain.StatusDone},
		{input: "finished", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := domain.ParseTicketStatus(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriorityRank(t *testing.T) {
	priorities := []domain.Priority{domain.PriorityLow, domain.PriorityCritical, domain.PriorityMedium, domain.PriorityHigh}
	sort.Slice(priorities, func(i, j int) bool {
		return priorities[i].Rank() > priorities[j].Rank()
	})

	assert.Equal(t, []domain.Priority{
		domain.PriorityCritical,
		domain.PriorityHigh,
		domain.PriorityMedium,
		domain.PriorityLow,
	}, priorities)
	assert.Equal(t, 0, domain.Priority("Urgent").Rank())
}

func TestEnumJSON(t *testing.T) {
	var payload struct {
		Type     domain.TicketType   `json:"ticket_type"`
		Status   domain.TicketStatus `json:"status"`
		Priority domain.Priority     `json:"priority"`
	}
	err := json.Unmarshal([]byte(`{"ticket_type":"bug","status":"inprogress","priority":"critical"}`), &payload)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketTypeBug, payload.Type)
	assert.Equal(t, domain.StatusInProgress, payload.Status)
	assert.Equal(t, domain.PriorityCritical, payload.Priority)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ticket_type":"Bug","status":"InProgress","priority":"Critical"}`, string(out))

	err = json.Unmarshal([]byte(`{"priority":"urgent"}`), &payload)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTicketStatusDisplayName(t *testing.T) {
	assert.Equal(t, "In Progress", domain.StatusInProgress.DisplayName())
	assert.Equal(t, "Review", domain.StatusReview.DisplayName())
}
