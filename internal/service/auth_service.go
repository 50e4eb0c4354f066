package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dom/worknest/internal/auth"
	"github.com/dom/worknest/internal/domain"
	"github.com/dom/worknest/internal/logger"
	"github.com/dom/worknest/internal/repository"
	"github.com/google/uuid"
)

type AuthService struct {
	userRepo       repository.UserRepository
	revocationRepo repository.RevocationRepository
	hasher         *auth.PasswordHasher
	tokens         *auth.TokenManager
}

func NewAuthService(userRepo repository.UserRepository, revocationRepo repository.RevocationRepository, hasher *auth.PasswordHasher, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		revocationRepo: revocationRepo,
		hasher:         hasher,
		tokens:         tokens,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput accepts either a username or an email address as Login.
type LoginInput struct {
	Login    string
	Password string
}

type AuthResult struct {
	User  *domain.User
	Token *auth.Token
}

// Register creates the account and signs the caller in. The password is
// hashed before a storage slot is taken.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	user := &domain.User{
		Username: strings.TrimSpace(input.Username),
		Email:    strings.TrimSpace(input.Email),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.Info().Str("user_id", user.ID.String()).Msg("user registered")

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	login := strings.TrimSpace(input.Login)
	if login == "" || input.Password == "" {
		return nil, auth.ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, auth.ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Authenticate verifies a bearer token and checks it has not been revoked.
func (s *AuthService) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return auth.Identity{}, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return auth.Identity{}, err
	}

	if claims.ID != "" {
		revoked, err := s.revocationRepo.IsRevoked(ctx, claims.ID)
		if err != nil {
			return auth.Identity{}, err
		}
		if revoked {
			return auth.Identity{}, auth.ErrTokenRevoked
		}
	}

	return auth.Identity{
		UserID:    userID,
		Username:  claims.Username,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAtTime(),
	}, nil
}

// Me returns the caller's account. A token that outlived its user is
// rejected as unauthorized.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, auth.ErrTokenInvalid
	}
	return user, nil
}

// Refresh issues a new token for the caller and revokes the one presented.
func (s *AuthService) Refresh(ctx context.Context, identity auth.Identity) (*AuthResult, error) {
	user, err := s.Me(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.revoke(ctx, identity); err != nil {
		return nil, err
	}
	return result, nil
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(input.CurrentPassword, user.PasswordHash) {
		return auth.ErrInvalidCredentials
	}
	if err := auth.ValidatePassword(input.NewPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if _, err := s.userRepo.Update(ctx, userID, domain.UserUpdate{PasswordHash: &hash}); err != nil {
		return err
	}
	logger.Info().Str("user_id", userID.String()).Msg("password changed")
	return nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, identity auth.Identity) error {
	return s.revoke(ctx, identity)
}

func (s *AuthService) revoke(ctx context.Context, identity auth.Identity) error {
	if identity.TokenID == "" {
		return nil
	}
	return s.revocationRepo.Revoke(ctx, identity.TokenID, identity.UserID, identity.ExpiresAt)
}
