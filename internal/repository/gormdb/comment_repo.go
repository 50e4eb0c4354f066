package gormdb

import (
	"context"
	"fmt"

	"github.com/dom/worknest/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type commentRepository struct {
	pool *Pool
}

func NewCommentRepository(pool *Pool) *commentRepository {
	return &commentRepository{pool: pool}
}

var errTicketNotFound = fmt.Errorf("%w: ticket not found", domain.ErrNotFound)

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if err := comment.Validate(); err != nil {
		return err
	}
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	ts := now()
	comment.CreatedAt = ts
	comment.UpdatedAt = ts

	return r.pool.Write(ctx, func(tx *gorm.DB) error {
		ok, err := exists(tx, &domain.Ticket{}, "id = ?", comment.TicketID)
		if err != nil {
			return err
		}
		if !ok {
			return errTicketNotFound
		}
		return tx.Create(comment).Error
	})
}

func (r *commentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	return findOne[domain.Comment](ctx, r.pool, "id = ?", id)
}

func (r *commentRepository) Update(ctx context.Context, id uuid.UUID, content string) (*domain.Comment, error) {
	if err := domain.ValidateCommentContent(content); err != nil {
		return nil, err
	}

	var comment domain.Comment
	err := r.pool.Write(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&comment).Error; err != nil {
			return err
		}
		comment.Content = content
		comment.UpdatedAt = now()
		return tx.Model(&comment).Select("content", "updated_at").Updates(&comment).Error
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.pool.Write(ctx, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&domain.Comment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// ListByTicket returns the ticket's comments oldest first.
func (r *commentRepository) ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]*domain.Comment, error) {
	comments := []*domain.Comment{}
	err := r.pool.Read(ctx, func(tx *gorm.DB) error {
		return tx.Where("ticket_id = ?", ticketID).
			Order("created_at").
			Order("id").
			Find(&comments).Error
	})
	return comments, err
}
