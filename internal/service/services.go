package service

import (
	"fmt"

	"github.com/dom/worknest/internal/auth"
	"github.com/dom/worknest/internal/config"
	"github.com/dom/worknest/internal/repository"
	"github.com/dom/worknest/internal/storage"
)

type Services struct {
	Repos       *repository.Repositories
	Auth        *AuthService
	Projects    *ProjectService
	Tickets     *TicketService
	Comments    *CommentService
	Attachments *AttachmentService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, store storage.Store) (*Services, error) {
	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.TokenTTL())
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}
	hasher := auth.NewPasswordHasher(cfg.JWT.BcryptCost)
	files := &fileReaper{store: store}

	return &Services{
		Repos:       repos,
		Auth:        NewAuthService(repos.User, repos.Revocation, hasher, tokens),
		Projects:    NewProjectService(repos.Project, files),
		Tickets:     NewTicketService(repos.Ticket, files),
		Comments:    NewCommentService(repos.Comment, repos.Ticket),
		Attachments: NewAttachmentService(repos.Attachment, repos.Ticket, store, files, cfg.Upload.MaxSizeBytes),
	}, nil
}
