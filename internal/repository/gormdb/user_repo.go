package gormdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/dom/worknest/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	pool *Pool
}

func NewUserRepository(pool *Pool) *userRepository {
	return &userRepository{pool: pool}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	user.Username = strings.TrimSpace(user.Username)
	user.Email = normalizeEmail(user.Email)
	if err := user.Validate(); err != nil {
		return err
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	ts := now()
	user.CreatedAt = ts
	user.UpdatedAt = ts

	return r.pool.Write(ctx, func(tx *gorm.DB) error {
		if err := checkUserUnique(tx, user.ID, user.Username, user.Email); err != nil {
			return err
		}
		return tx.Create(user).Error
	})
}

// checkUserUnique reports a taken username or email with a readable message.
// The unique indexes still guard concurrent inserts.
func checkUserUnique(tx *gorm.DB, self uuid.UUID, username, email string) error {
	taken, err := exists(tx, &domain.User{}, "username = ? AND id <> ?", username, self)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: username already taken", domain.ErrConflict)
	}
	taken, err = exists(tx, &domain.User{}, "email = ? AND id <> ?", email, self)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: email already registered", domain.ErrConflict)
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return findOne[domain.User](ctx, r.pool, "id = ?", id)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.pool, "username = ?", strings.TrimSpace(username))
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.pool, "email = ?", normalizeEmail(email))
}

// FindByLogin tries the username first, since usernames may contain "@",
// then falls back to the email address.
func (r *userRepository) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	login = strings.TrimSpace(login)
	user, err := r.FindByUsername(ctx, login)
	if err != nil || user != nil {
		return user, err
	}
	if !strings.Contains(login, "@") {
		return nil, nil
	}
	return r.FindByEmail(ctx, login)
}

func (r *userRepository) Update(ctx context.Context, id uuid.UUID, update domain.UserUpdate) (*domain.User, error) {
	var user domain.User
	err := r.pool.Write(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&user).Error; err != nil {
			return err
		}
		update.Apply(&user)
		user.Email = normalizeEmail(user.Email)
		if err := user.Validate(); err != nil {
			return err
		}
		if update.Username != nil || update.Email != nil {
			if err := checkUserUnique(tx, user.ID, user.Username, user.Email); err != nil {
				return err
			}
		}
		user.UpdatedAt = now()
		return tx.Model(&user).Select("username", "email", "password_hash", "updated_at").Updates(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete refuses to remove a user that projects, tickets, comments or
// attachments still refer to.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.pool.Write(ctx, func(tx *gorm.DB) error {
		if err := tx.Select("id").Where("id = ?", id).Take(&domain.User{}).Error; err != nil {
			return err
		}

		refs := []struct {
			model any
			query string
		}{
			{&domain.Project{}, "created_by = ?"},
			{&domain.Ticket{}, "created_by = ? OR assignee_id = ?"},
			{&domain.Comment{}, "user_id = ?"},
			{&domain.Attachment{}, "uploaded_by = ?"},
		}
		for _, ref := range refs {
			args := []any{id}
			if strings.Count(ref.query, "?") == 2 {
				args = append(args, id)
			}
			referenced, err := exists(tx, ref.model, ref.query, args...)
			if err != nil {
				return err
			}
			if referenced {
				return fmt.Errorf("%w: user is still referenced by other records", domain.ErrConflict)
			}
		}

		if err := tx.Where("user_id = ?", id).Delete(&revokedToken{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.User{}).Error
	})
}
