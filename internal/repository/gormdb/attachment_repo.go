package gormdb

import (
	"context"
	"strings"

	"github.com/dom/worknest/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type attachmentRepository struct {
	pool *Pool
}

func NewAttachmentRepository(pool *Pool) *attachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	attachment.Filename = strings.TrimSpace(attachment.Filename)
	if err := attachment.Validate(); err != nil {
		return err
	}
	if attachment.ID == uuid.Nil {
		attachment.ID = uuid.New()
	}
	attachment.CreatedAt = now()

	return r.pool.Write(ctx, func(tx *gorm.DB) error {
		ok, err := exists(tx, &domain.Ticket{}, "id = ?", attachment.TicketID)
		if err != nil {
			return err
		}
		if !ok {
			return errTicketNotFound
		}
		return tx.Create(attachment).Error
	})
}

func (r *attachmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	return findOne[domain.Attachment](ctx, r.pool, "id = ?", id)
}

// Update renames the attachment. Attachments carry no updated_at.
func (r *attachmentRepository) Update(ctx context.Context, id uuid.UUID, update domain.AttachmentUpdate) (*domain.Attachment, error) {
	var attachment domain.Attachment
	err := r.pool.Write(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&attachment).Error; err != nil {
			return err
		}
		if update.Filename == nil {
			return nil
		}
		attachment.Filename = strings.TrimSpace(*update.Filename)
		if err := domain.ValidateFilename(attachment.Filename); err != nil {
			return err
		}
		return tx.Model(&attachment).Update("filename", attachment.Filename).Error
	})
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *attachmentRepository) Delete(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	var attachment domain.Attachment
	err := r.pool.Write(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&attachment).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Attachment{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]*domain.Attachment, error) {
	attachments := []*domain.Attachment{}
	err := r.pool.Read(ctx, func(tx *gorm.DB) error {
		return tx.Where("ticket_id = ?", ticketID).
			Order("created_at").
			Order("id").
			Find(&attachments).Error
	})
	return attachments, err
}
