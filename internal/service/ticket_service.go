package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dom/worknest/internal/domain"
	"github.com/dom/worknest/internal/repository"
	"github.com/dom/worknest/internal/ticketquery"
	"github.com/google/uuid"
)

type TicketService struct {
	ticketRepo repository.TicketRepository
	files      *fileReaper
}

func NewTicketService(ticketRepo repository.TicketRepository, files *fileReaper) *TicketService {
	return &TicketService{ticketRepo: ticketRepo, files: files}
}

// CreateTicketInput leaves Status and Priority nil to take the defaults
// (Open, Medium).
type CreateTicketInput struct {
	ProjectID     uuid.UUID
	Title         string
	Description   *string
	TicketType    domain.TicketType
	Status        *domain.TicketStatus
	Priority      *domain.Priority
	AssigneeID    *uuid.UUID
	DueDate       *time.Time
	EstimateHours *float64
	CreatedBy     uuid.UUID
}

func (s *TicketService) Create(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	ticket := domain.NewTicket(input.ProjectID, strings.TrimSpace(input.Title), input.TicketType, input.CreatedBy)
	ticket.Description = input.Description
	if input.Status != nil {
		ticket.Status = *input.Status
	}
	if input.Priority != nil {
		ticket.Priority = *input.Priority
	}
	ticket.AssigneeID = input.AssigneeID
	ticket.DueDate = input.DueDate
	ticket.EstimateHours = input.EstimateHours

	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) Get(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, fmt.Errorf("%w: ticket %s", domain.ErrNotFound, id)
	}
	return ticket, nil
}

func (s *TicketService) Update(ctx context.Context, id uuid.UUID, update domain.TicketUpdate) (*domain.Ticket, error) {
	return s.ticketRepo.Update(ctx, id, update)
}

// Delete removes the ticket with its comments and attachments, then the
// attachment files.
func (s *TicketService) Delete(ctx context.Context, id uuid.UUID) error {
	paths, err := s.ticketRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.files.remove(paths...)
	return nil
}

// TicketPage is one page of a filtered listing plus the size of the whole
// filtered set.
type TicketPage struct {
	Tickets []*domain.Ticket
	Total   int64
	Limit   int
	Offset  int
}

func (s *TicketService) List(ctx context.Context, filter ticketquery.Filter) (*TicketPage, error) {
	filter = filter.Normalize()

	tickets, err := s.ticketRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.ticketRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &TicketPage{Tickets: tickets, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// Search ranks tickets by how well title and description match the query.
// An empty query matches nothing.
func (s *TicketService) Search(ctx context.Context, search ticketquery.Search) ([]*domain.Ticket, error) {
	if search.Empty() {
		return []*domain.Ticket{}, nil
	}
	return s.ticketRepo.Search(ctx, search)
}
