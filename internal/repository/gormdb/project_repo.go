package gormdb

import (
	"context"
	"strings"

	"github.com/dom/worknest/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type projectRepository struct {
	pool *Pool
}

func NewProjectRepository(pool *Pool) *projectRepository {
	return &projectRepository{pool: pool}
}

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	project.Name = strings.TrimSpace(project.Name)
	if err := project.Validate(); err != nil {
		return err
	}
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	ts := now()
	project.CreatedAt = ts
	project.UpdatedAt = ts

	return r.pool.Write(ctx, func(tx *gorm.DB) error {
		return tx.Create(project).Error
	})
}

func (r *projectRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return findOne[domain.Project](ctx, r.pool, "id = ?", id)
}

func (r *projectRepository) Update(ctx context.Context, id uuid.UUID, update domain.ProjectUpdate) (*domain.Project, error) {
	var project domain.Project
	err := r.pool.Write(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&project).Error; err != nil {
			return err
		}
		update.Apply(&project)
		if err := project.Validate(); err != nil {
			return err
		}
		project.UpdatedAt = now()
		return tx.Model(&project).
			Select("name", "description", "color", "archived", "updated_at").
			Updates(&project).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Delete removes the project and everything it owns in one transaction.
func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) ([]string, error) {
	var paths []string
	err := r.pool.Write(ctx, func(tx *gorm.DB) error {
		if err := tx.Select("id").Where("id = ?", id).Take(&domain.Project{}).Error; err != nil {
			return err
		}

		var ticketIDs []string
		if err := tx.Model(&domain.Ticket{}).Where("project_id = ?", id).Pluck("id", &ticketIDs).Error; err != nil {
			return err
		}
		var err error
		if paths, err = deleteTickets(tx, ticketIDs); err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Project{}).Error
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (r *projectRepository) List(ctx context.Context, opts domain.ProjectListOptions) ([]*domain.Project, error) {
	var projects []*domain.Project
	err := r.pool.Read(ctx, func(tx *gorm.DB) error {
		q := tx.Model(&domain.Project{})
		if !opts.IncludeArchived {
			q = q.Where("archived = ?", false)
		}
		if opts.CreatedBy != nil {
			q = q.Where("created_by = ?", *opts.CreatedBy)
		}
		return q.Order("created_at DESC").Order("id").Find(&projects).Error
	})
	return projects, err
}
