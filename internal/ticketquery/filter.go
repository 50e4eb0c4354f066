// Package ticketquery turns ticket listing and search parameters into
// validated, storage-independent query descriptions.
package ticketquery

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/dom/worknest/internal/domain"
	"github.com/google/uuid"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Me is the assignee sentinel resolved to the authenticated caller.
const Me = "me"

type SortKey string

const (
	SortCreatedAt SortKey = "created_at"
	SortUpdatedAt SortKey = "updated_at"
	SortPriority  SortKey = "priority"
)

type Order string

const (
	Desc Order = "desc"
	Asc  Order = "asc"
)

// Filter is a normalised ticket listing request. Nil fields do not constrain
// the result.
type Filter struct {
	ProjectID  *uuid.UUID
	Status     *domain.TicketStatus
	Priority   *domain.Priority
	AssigneeID *uuid.UUID
	Sort       SortKey
	Order      Order
	Limit      int
	Offset     int
}

// Normalize fills defaults and clamps pagination.
func (f Filter) Normalize() Filter {
	if f.Sort == "" {
		f.Sort = SortCreatedAt
	}
	if f.Order == "" {
		f.Order = Desc
	}
	f.Limit = clampLimit(f.Limit)
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Parse reads listing parameters from a query string. caller replaces the
// "me" assignee sentinel.
func Parse(values url.Values, caller uuid.UUID) (Filter, error) {
	var f Filter

	if v := strings.TrimSpace(values.Get("project_id")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return Filter{}, domain.Invalid("project_id", "must be a valid id")
		}
		f.ProjectID = &id
	}

	if v := strings.TrimSpace(values.Get("status")); v != "" {
		status, err := domain.ParseTicketStatus(v)
		if err != nil {
			return Filter{}, err
		}
		f.Status = &status
	}

	if v := strings.TrimSpace(values.Get("priority")); v != "" {
		priority, err := domain.ParsePriority(v)
		if err != nil {
			return Filter{}, err
		}
		f.Priority = &priority
	}

	if v := strings.TrimSpace(values.Get("assignee_id")); v != "" {
		id, err := ResolveUserRef(v, caller)
		if err != nil {
			return Filter{}, domain.Invalid("assignee_id", "must be a valid id or \"me\"")
		}
		f.AssigneeID = &id
	}

	if v := strings.TrimSpace(values.Get("sort")); v != "" {
		key, err := ParseSortKey(v)
		if err != nil {
			return Filter{}, err
		}
		f.Sort = key
	}

	if v := strings.TrimSpace(values.Get("order")); v != "" {
		switch Order(strings.ToLower(v)) {
		case Asc:
			f.Order = Asc
		case Desc:
			f.Order = Desc
		default:
			return Filter{}, domain.Invalid("order", "must be asc or desc")
		}
	}

	var err error
	if f.Limit, err = parseNonNegative(values, "limit"); err != nil {
		return Filter{}, err
	}
	if f.Offset, err = parseNonNegative(values, "offset"); err != nil {
		return Filter{}, err
	}

	return f.Normalize(), nil
}

func ParseSortKey(s string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(s))); key {
	case SortCreatedAt, SortUpdatedAt, SortPriority:
		return key, nil
	}
	return "", domain.Invalid("sort", "must be one of created_at, updated_at, priority")
}

// ResolveUserRef parses a user id, mapping "me" to caller.
func ResolveUserRef(ref string, caller uuid.UUID) (uuid.UUID, error) {
	if strings.EqualFold(strings.TrimSpace(ref), Me) {
		if caller == uuid.Nil {
			return uuid.Nil, domain.ErrUnauthorized
		}
		return caller, nil
	}
	return uuid.Parse(strings.TrimSpace(ref))
}

func parseNonNegative(values url.Values, key string) (int, error) {
	v := strings.TrimSpace(values.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, domain.Invalid(key, "must be a non-negative integer")
	}
	return n, nil
}
