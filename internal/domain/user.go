package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:varchar(36);primaryKey"`
	Username     string    `json:"username" gorm:"type:varchar(255);uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks the identity fields. The password hash is set by the auth
// service and is not inspected here.
func (u *User) Validate() error {
	username := strings.TrimSpace(u.Username)
	if username == "" {
		return Invalid("username", "cannot be empty")
	}
	if len(username) < 3 {
		return Invalid("username", "must be at least 3 characters")
	}
	if len(username) > 255 {
		return Invalid("username", "must be 255 characters or less")
	}
	return ValidateEmail(u.Email)
}

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return Invalid("email", "cannot be empty")
	}
	if !strings.Contains(email, "@") {
		return Invalid("email", "invalid format")
	}
	if len(email) > 255 {
		return Invalid("email", "must be 255 characters or less")
	}
	return nil
}

// UserUpdate lists the fields a user update may touch; nil means unchanged.
type UserUpdate struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

func (u *UserUpdate) Apply(user *User) {
	if u.Username != nil {
		user.Username = strings.TrimSpace(*u.Username)
	}
	if u.Email != nil {
		user.Email = strings.TrimSpace(*u.Email)
	}
	if u.PasswordHash != nil {
		user.PasswordHash = *u.PasswordHash
	}
}
