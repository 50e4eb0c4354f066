package repository

import (
	"context"
	"time"

	"github.com/dom/worknest/internal/domain"
	"github.com/dom/worknest/internal/ticketquery"
	"github.com/google/uuid"
)

// Lookups by id return (nil, nil) when the entity does not exist. Update and
// Delete return domain.ErrNotFound for a missing id.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByLogin matches either the username or the email address.
	FindByLogin(ctx context.Context, login string) (*domain.User, error)
	Update(ctx context.Context, id uuid.UUID, update domain.UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	Update(ctx context.Context, id uuid.UUID, update domain.ProjectUpdate) (*domain.Project, error)
	// Delete removes the project with its tickets, comments and attachment
	// records, returning the storage paths of the removed attachments.
	Delete(ctx context.Context, id uuid.UUID) ([]string, error)
	List(ctx context.Context, opts domain.ProjectListOptions) ([]*domain.Project, error)
}

type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	Update(ctx context.Context, id uuid.UUID, update domain.TicketUpdate) (*domain.Ticket, error)
	// Delete removes the ticket with its comments and attachment records,
	// returning the storage paths of the removed attachments.
	Delete(ctx context.Context, id uuid.UUID) ([]string, error)
	List(ctx context.Context, filter ticketquery.Filter) ([]*domain.Ticket, error)
	Count(ctx context.Context, filter ticketquery.Filter) (int64, error)
	Search(ctx context.Context, search ticketquery.Search) ([]*domain.Ticket, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	Update(ctx context.Context, id uuid.UUID, content string) (*domain.Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]*domain.Comment, error)
}

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error)
	Update(ctx context.Context, id uuid.UUID, update domain.AttachmentUpdate) (*domain.Attachment, error)
	// Delete removes the record and returns it so the caller can remove the
	// backing file.
	Delete(ctx context.Context, id uuid.UUID) (*domain.Attachment, error)
	ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]*domain.Attachment, error)
}

// RevocationRepository persists logged-out token ids until they expire.
type RevocationRepository interface {
	Revoke(ctx context.Context, tokenID string, userID uuid.UUID, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Repositories struct {
	User       UserRepository
	Project    ProjectRepository
	Ticket     TicketRepository
	Comment    CommentRepository
	Attachment AttachmentRepository
	Revocation RevocationRepository
}
