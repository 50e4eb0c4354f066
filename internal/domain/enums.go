package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

type TicketType string

const (
	TicketTypeTask    TicketType = "Task"
	TicketTypeBug     TicketType = "Bug"
	TicketTypeFeature TicketType = "Feature"
	TicketTypeEpic    TicketType = "Epic"
)

var AllTicketTypes = []TicketType{TicketTypeTask, TicketTypeBug, TicketTypeFeature, TicketTypeEpic}

type TicketStatus string

const (
	StatusOpen       TicketStatus = "Open"
	StatusInProgress TicketStatus = "InProgress"
	StatusReview     TicketStatus = "Review"
	StatusDone       TicketStatus = "Done"
	StatusClosed     TicketStatus = "Closed"
)

var AllStatuses = []TicketStatus{StatusOpen, StatusInProgress, StatusReview, StatusDone, StatusClosed}

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// AllPriorities is ordered from least to most urgent.
var AllPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// enumKey folds case and drops separators so "in_progress", "In Progress"
// and "inprogress" all compare equal.
func enumKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}

func parseEnum[T ~string](field, raw string, all []T) (T, error) {
	key := enumKey(raw)
	for _, v := range all {
		if enumKey(string(v)) == key {
			return v, nil
		}
	}
	var zero T
	names := make([]string, len(all))
	for i, v := range all {
		names[i] = string(v)
	}
	return zero, Invalid(field, fmt.Sprintf("invalid value %q (expected one of %s)", raw, strings.Join(names, ", ")))
}

func isMember[T ~string](v T, all []T) bool {
	for _, candidate := range all {
		if v == candidate {
			return true
		}
	}
	return false
}

func ParseTicketType(s string) (TicketType, error) {
	return parseEnum("ticket_type", s, AllTicketTypes)
}

func (t TicketType) IsValid() bool  { return isMember(t, AllTicketTypes) }
func (t TicketType) String() string { return string(t) }

func (t *TicketType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return Invalid("ticket_type", "must be a string")
	}
	v, err := ParseTicketType(raw)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func ParseTicketStatus(s string) (TicketStatus, error) {
	return parseEnum("status", s, AllStatuses)
}

func (s TicketStatus) IsValid() bool  { return isMember(s, AllStatuses) }
func (s TicketStatus) String() string { return string(s) }

// DisplayName returns the label used by clients, e.g. "In Progress".
func (s TicketStatus) DisplayName() string {
	if s == StatusInProgress {
		return "In Progress"
	}
	return string(s)
}

func (s *TicketStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return Invalid("status", "must be a string")
	}
	v, err := ParseTicketStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func ParsePriority(s string) (Priority, error) {
	return parseEnum("priority", s, AllPriorities)
}

func (p Priority) IsValid() bool  { return isMember(p, AllPriorities) }
func (p Priority) String() string { return string(p) }

// Rank orders priorities by urgency: Low=1 ... Critical=4. Unknown values
// rank 0.
func (p Priority) Rank() int {
	for i, v := range AllPriorities {
		if v == p {
			return i + 1
		}
	}
	return 0
}

func (p *Priority) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return Invalid("priority", "must be a string")
	}
	v, err := ParsePriority(raw)
	if err != nil {
		return err
	}
	*p = v
	return nil
}
