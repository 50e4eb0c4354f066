package gormdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type revokedToken struct {
	TokenID   string `gorm:"primaryKey"`
	UserID    string
	ExpiresAt time.Time
	RevokedAt time.Time
}

func (revokedToken) TableName() string { return "revoked_tokens" }

type revocationRepository struct {
	pool *Pool
}

func NewRevocationRepository(pool *Pool) *revocationRepository {
	return &revocationRepository{pool: pool}
}

// Revoke records the token id until its expiry. Entries past their expiry
// are purged on the way, since an expired token fails verification anyway.
func (r *revocationRepository) Revoke(ctx context.Context, tokenID string, userID uuid.UUID, expiresAt time.Time) error {
	ts := now()
	return r.pool.Write(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("expires_at < ?", ts).Delete(&revokedToken{}).Error; err != nil {
			return err
		}
		row := revokedToken{
			TokenID:   tokenID,
			UserID:    userID.String(),
			ExpiresAt: expiresAt.UTC(),
			RevokedAt: ts,
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	})
}

func (r *revocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	err := r.pool.Read(ctx, func(tx *gorm.DB) error {
		var err error
		revoked, err = exists(tx, &revokedToken{}, "token_id = ?", tokenID)
		return err
	})
	return revoked, err
}
