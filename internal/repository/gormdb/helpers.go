package gormdb

import (
	"context"
	"errors"
	"time"

	"github.com/dom/worknest/internal/domain"
	"gorm.io/gorm"
)

func now() time.Time {
	return time.Now().UTC()
}

// findOne returns the first row matching the condition, or (nil, nil) when
// there is none.
func findOne[T any](ctx context.Context, pool *Pool, query string, args ...any) (*T, error) {
	var out T
	err := pool.Read(ctx, func(tx *gorm.DB) error {
		return tx.Where(query, args...).Take(&out).Error
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func exists(tx *gorm.DB, model any, query string, args ...any) (bool, error) {
	var n int64
	if err := tx.Model(model).Where(query, args...).Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
