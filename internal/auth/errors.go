package auth

import (
	"fmt"

	"github.com/dom/worknest/internal/domain"
)

var (
	// ErrInvalidCredentials is returned for any failed login, without saying
	// whether the user or the password was wrong.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	ErrUserExists         = fmt.Errorf("%w: user already exists", domain.ErrConflict)
	ErrTokenExpired       = fmt.Errorf("%w: token expired", domain.ErrUnauthorized)
	ErrTokenInvalid       = fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	ErrTokenRevoked       = fmt.Errorf("%w: token revoked", domain.ErrUnauthorized)
	ErrMissingSecret      = fmt.Errorf("auth secret is not configured")
)
