package gormdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/dom/worknest/internal/domain"
	"github.com/dom/worknest/internal/ticketquery"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ticketRepository struct {
	pool *Pool
}

func NewTicketRepository(pool *Pool) *ticketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	ticket.Title = strings.TrimSpace(ticket.Title)
	if err := ticket.Validate(); err != nil {
		return err
	}
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	ts := now()
	ticket.CreatedAt = ts
	ticket.UpdatedAt = ts

	return r.pool.Write(ctx, func(tx *gorm.DB) error {
		if err := checkTicketRefs(tx, ticket); err != nil {
			return err
		}
		if err := tx.Create(ticket).Error; err != nil {
			return err
		}
		return writeSearchDocument(tx, ticket.ID.String(), ticket.SearchText(), ticket.UpdatedAt)
	})
}

func checkTicketRefs(tx *gorm.DB, ticket *domain.Ticket) error {
	ok, err := exists(tx, &domain.Project{}, "id = ?", ticket.ProjectID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Invalid("project_id", "project does not exist")
	}
	if ticket.AssigneeID != nil {
		ok, err := exists(tx, &domain.User{}, "id = ?", *ticket.AssigneeID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Invalid("assignee_id", "user does not exist")
		}
	}
	return nil
}

func (r *ticketRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	return findOne[domain.Ticket](ctx, r.pool, "id = ?", id)
}

// Update applies only the supplied fields. The search index is rewritten in
// the same transaction when title or description change.
func (r *ticketRepository) Update(ctx context.Context, id uuid.UUID, update domain.TicketUpdate) (*domain.Ticket, error) {
	var ticket domain.Ticket
	err := r.pool.Write(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&ticket).Error; err != nil {
			return err
		}
		update.Apply(&ticket)
		if err := ticket.Validate(); err != nil {
			return err
		}
		if update.Assignee.Action == domain.AssigneeSet {
			if err := checkTicketRefs(tx, &ticket); err != nil {
				return err
			}
		}
		ticket.UpdatedAt = now()
		err := tx.Model(&ticket).
			Select("title", "description", "ticket_type", "status", "priority",
				"assignee_id", "due_date", "estimate_hours", "updated_at").
			Updates(&ticket).Error
		if err != nil {
			return err
		}

		if update.TouchesSearchText() {
			return writeSearchDocument(tx, ticket.ID.String(), ticket.SearchText(), ticket.UpdatedAt)
		}
		return tx.Model(&searchDocument{}).
			Where("ticket_id = ?", ticket.ID.String()).
			Update("updated_at", ticket.UpdatedAt).Error
	})
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id uuid.UUID) ([]string, error) {
	var paths []string
	err := r.pool.Write(ctx, func(tx *gorm.DB) error {
		if err := tx.Select("id").Where("id = ?", id).Take(&domain.Ticket{}).Error; err != nil {
			return err
		}
		var err error
		paths, err = deleteTickets(tx, []string{id.String()})
		return err
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// deleteTickets removes tickets with their comments, attachment records and
// index entries, returning the removed attachments' storage paths.
func deleteTickets(tx *gorm.DB, ticketIDs []string) ([]string, error) {
	if len(ticketIDs) == 0 {
		return nil, nil
	}

	var paths []string
	if err := tx.Model(&domain.Attachment{}).
		Where("ticket_id IN ?", ticketIDs).
		Order("created_at").
		Pluck("storage_path", &paths).Error; err != nil {
		return nil, err
	}

	steps := []struct {
		name  string
		model any
		where string
	}{
		{"attachments", &domain.Attachment{}, "ticket_id IN ?"},
		{"comments", &domain.Comment{}, "ticket_id IN ?"},
		{"tickets", &domain.Ticket{}, "id IN ?"},
	}
	for _, step := range steps {
		if err := tx.Where(step.where, ticketIDs).Delete(step.model).Error; err != nil {
			return nil, fmt.Errorf("delete %s: %w", step.name, err)
		}
	}
	if err := deleteSearchDocument(tx, ticketIDs...); err != nil {
		return nil, err
	}
	return paths, nil
}

func (r *ticketRepository) List(ctx context.Context, filter ticketquery.Filter) ([]*domain.Ticket, error) {
	filter = filter.Normalize()
	var tickets []*domain.Ticket
	err := r.pool.Read(ctx, func(tx *gorm.DB) error {
		q := applyFilter(tx.Model(&domain.Ticket{}), filter)
		q = orderBy(q, filter.Sort, filter.Order)
		return q.Limit(filter.Limit).Offset(filter.Offset).Find(&tickets).Error
	})
	return tickets, err
}

// Count is the size of the filtered set, ignoring pagination.
func (r *ticketRepository) Count(ctx context.Context, filter ticketquery.Filter) (int64, error) {
	var n int64
	err := r.pool.Read(ctx, func(tx *gorm.DB) error {
		return applyFilter(tx.Model(&domain.Ticket{}), filter).Count(&n).Error
	})
	return n, err
}

func (r *ticketRepository) Search(ctx context.Context, search ticketquery.Search) ([]*domain.Ticket, error) {
	if search.Empty() {
		return []*domain.Ticket{}, nil
	}
	limit := search.Limit
	if limit <= 0 || limit > ticketquery.MaxLimit {
		limit = ticketquery.DefaultLimit
	}

	var tickets []*domain.Ticket
	err := r.pool.Read(ctx, func(tx *gorm.DB) error {
		scores := searchScores(tx, search.Terms)
		q := tx.Model(&domain.Ticket{}).
			Select("tickets.*").
			Joins("JOIN (?) AS scores ON scores.ticket_id = tickets.id", scores)
		if search.ProjectID != nil {
			q = q.Where("tickets.project_id = ?", *search.ProjectID)
		}
		return q.Order("scores.score DESC").
			Order("tickets.updated_at DESC").
			Order("tickets.id").
			Limit(limit).
			Find(&tickets).Error
	})
	return tickets, err
}
