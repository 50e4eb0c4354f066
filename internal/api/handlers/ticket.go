package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dom/worknest/internal/domain"
	"github.com/dom/worknest/internal/service"
	"github.com/dom/worknest/internal/ticketquery"
	"github.com/google/uuid"
)

type TicketHandler struct {
	ticketService *service.TicketService
}

func NewTicketHandler(ticketService *service.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

type CreateTicketRequest struct {
	ProjectID     string               `json:"project_id"`
	Title         string               `json:"title"`
	Description   *string              `json:"description"`
	TicketType    *domain.TicketType   `json:"ticket_type"`
	Status        *domain.TicketStatus `json:"status"`
	Priority      *domain.Priority     `json:"priority"`
	AssigneeID    *string              `json:"assignee_id"`
	DueDate       *time.Time           `json:"due_date"`
	EstimateHours *float64             `json:"estimate_hours"`
}

// UpdateTicketRequest only touches the keys present in the payload. For
// assignee_id, null or "" unassigns and "me" assigns the caller.
type UpdateTicketRequest struct {
	Title         *string                    `json:"title"`
	Description   domain.Optional[string]    `json:"description"`
	TicketType    *domain.TicketType         `json:"ticket_type"`
	Status        *domain.TicketStatus       `json:"status"`
	Priority      *domain.Priority           `json:"priority"`
	AssigneeID    domain.Optional[string]    `json:"assignee_id"`
	DueDate       domain.Optional[time.Time] `json:"due_date"`
	EstimateHours domain.Optional[float64]   `json:"estimate_hours"`
}

func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, err := caller(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req CreateTicketRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	projectID, err := uuid.Parse(strings.TrimSpace(req.ProjectID))
	if err != nil {
		WriteError(w, r, domain.Invalid("project_id", "must be a valid id"))
		return
	}

	ticketType := domain.TicketTypeTask
	if req.TicketType != nil {
		ticketType = *req.TicketType
	}

	var assignee *uuid.UUID
	if req.AssigneeID != nil && strings.TrimSpace(*req.AssigneeID) != "" {
		id, err := ticketquery.ResolveUserRef(*req.AssigneeID, identity.UserID)
		if err != nil {
			WriteError(w, r, invalidAssignee())
			return
		}
		assignee = &id
	}

	ticket, err := h.ticketService.Create(r.Context(), service.CreateTicketInput{
		ProjectID:     projectID,
		Title:         req.Title,
		Description:   req.Description,
		TicketType:    ticketType,
		Status:        req.Status,
		Priority:      req.Priority,
		AssigneeID:    assignee,
		DueDate:       req.DueDate,
		EstimateHours: req.EstimateHours,
		CreatedBy:     identity.UserID,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, ticket)
}

// List filters by project_id, status, priority and assignee_id, sorts by
// sort/order and pages with limit/offset. X-Total-Count carries the size of
// the whole filtered set.
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, err := caller(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	filter, err := ticketquery.Parse(r.URL.Query(), identity.UserID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	page, err := h.ticketService.List(r.Context(), filter)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	w.Header().Set("X-Total-Count", strconv.FormatInt(page.Total, 10))
	WriteJSON(w, http.StatusOK, page.Tickets)
}

func (h *TicketHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("q") {
		WriteError(w, r, domain.Invalid("q", "is required"))
		return
	}

	search, err := ticketquery.ParseSearch(query)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	tickets, err := h.ticketService.Search(r.Context(), search)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, tickets)
}

func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	ticket, err := h.ticketService.Get(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, ticket)
}

func (h *TicketHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, err := caller(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req UpdateTicketRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	assignee, err := assigneeUpdate(req.AssigneeID, identity.UserID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	ticket, err := h.ticketService.Update(r.Context(), id, domain.TicketUpdate{
		Title:         req.Title,
		Description:   req.Description,
		TicketType:    req.TicketType,
		Status:        req.Status,
		Priority:      req.Priority,
		Assignee:      assignee,
		DueDate:       req.DueDate,
		EstimateHours: req.EstimateHours,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, ticket)
}

func (h *TicketHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.ticketService.Delete(r.Context(), id); err != nil {
		WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// assigneeUpdate reads the assignee_id key: absent leaves the assignee alone,
// null or "" clears it, "me" or an id assigns.
func assigneeUpdate(v domain.Optional[string], callerID uuid.UUID) (domain.AssigneeUpdate, error) {
	if !v.Set {
		return domain.AssigneeUpdate{}, nil
	}
	if v.Null || strings.TrimSpace(v.Value) == "" {
		return domain.Unassign(), nil
	}
	id, err := ticketquery.ResolveUserRef(v.Value, callerID)
	if err != nil {
		return domain.AssigneeUpdate{}, invalidAssignee()
	}
	return domain.AssignTo(id), nil
}

func invalidAssignee() error {
	return domain.Invalid("assignee_id", `must be a valid id or "me"`)
}
