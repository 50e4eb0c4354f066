package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dom/worknest/internal/domain"
	"github.com/dom/worknest/internal/repository"
	"github.com/google/uuid"
)

type ProjectService struct {
	projectRepo repository.ProjectRepository
	files       *fileReaper
}

func NewProjectService(projectRepo repository.ProjectRepository, files *fileReaper) *ProjectService {
	return &ProjectService{projectRepo: projectRepo, files: files}
}

type CreateProjectInput struct {
	Name        string
	Description *string
	Color       *string
	CreatedBy   uuid.UUID
}

func (s *ProjectService) Create(ctx context.Context, input CreateProjectInput) (*domain.Project, error) {
	project := &domain.Project{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Color:       input.Color,
		CreatedBy:   input.CreatedBy,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("%w: project %s", domain.ErrNotFound, id)
	}
	return project, nil
}

func (s *ProjectService) List(ctx context.Context, opts domain.ProjectListOptions) ([]*domain.Project, error) {
	return s.projectRepo.List(ctx, opts)
}

func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, update domain.ProjectUpdate) (*domain.Project, error) {
	return s.projectRepo.Update(ctx, id, update)
}

func (s *ProjectService) Archive(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	archived := true
	return s.projectRepo.Update(ctx, id, domain.ProjectUpdate{Archived: &archived})
}

func (s *ProjectService) Unarchive(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	archived := false
	return s.projectRepo.Update(ctx, id, domain.ProjectUpdate{Archived: &archived})
}

// Delete removes the project and everything it owns, then the attachment
// files that belonged to it.
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	paths, err := s.projectRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.files.remove(paths...)
	return nil
}
