package service

import (
	"context"
	"fmt"

	"github.com/dom/worknest/internal/domain"
	"github.com/dom/worknest/internal/repository"
	"github.com/google/uuid"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	ticketRepo  repository.TicketRepository
}

func NewCommentService(commentRepo repository.CommentRepository, ticketRepo repository.TicketRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, ticketRepo: ticketRepo}
}

func (s *CommentService) Create(ctx context.Context, ticketID, userID uuid.UUID, content string) (*domain.Comment, error) {
	comment := &domain.Comment{TicketID: ticketID, UserID: userID, Content: content}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListByTicket fails with ErrNotFound for an unknown ticket rather than
// returning an empty list.
func (s *CommentService) ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]*domain.Comment, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, fmt.Errorf("%w: ticket %s", domain.ErrNotFound, ticketID)
	}
	return s.commentRepo.ListByTicket(ctx, ticketID)
}

func (s *CommentService) Update(ctx context.Context, id, userID uuid.UUID, content string) (*domain.Comment, error) {
	if _, err := s.authored(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.commentRepo.Update(ctx, id, content)
}

func (s *CommentService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.authored(ctx, id, userID); err != nil {
		return err
	}
	return s.commentRepo.Delete(ctx, id)
}

// authored loads the comment and checks userID wrote it.
func (s *CommentService) authored(ctx context.Context, id, userID uuid.UUID) (*domain.Comment, error) {
	comment, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, fmt.Errorf("%w: comment %s", domain.ErrNotFound, id)
	}
	if comment.UserID != userID {
		return nil, fmt.Errorf("%w: only the author can change a comment", domain.ErrForbidden)
	}
	return comment, nil
}
