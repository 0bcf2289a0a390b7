// Package service provides the business logic layer for authentication,
// user profiles, and the book catalog.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goodreaders/goodreaders-server/internal/auth"
	"github.com/goodreaders/goodreaders-server/internal/domain"
	domainerrors "github.com/goodreaders/goodreaders-server/internal/errors"
	"github.com/goodreaders/goodreaders-server/internal/store"
	"github.com/goodreaders/goodreaders-server/internal/validation"
)

// validate is the shared request validator for all services.
// Field names in validation errors use JSON tag names.
var validate = validation.New()

// AuthService handles login, logout, and token verification.
type AuthService struct {
	store        *store.Store
	tokenService *auth.TokenService
	logger       *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(store *store.Store, tokenService *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		logger:       logger,
	}
}

// LoginRequest contains credentials for authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserSummary is the redacted user representation returned to clients.
// It never carries the password hash.
type UserSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// NewUserSummary builds the client-facing view of a user.
func NewUserSummary(user *domain.User) UserSummary {
	return UserSummary{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   string(user.Role),
		Avatar: user.Avatar,
	}
}

// AuthResponse is returned on successful login.
type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	User        UserSummary `json:"user"`
}

// Login verifies credentials and issues an access token.
// Unknown email and wrong password both return the same invalid
// credentials error so callers cannot probe which emails are registered.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if domainerrors.Is(err, store.ErrUserNotFound) {
			s.logger.Info("login failed", "reason", "unknown email")
			return nil, domainerrors.InvalidCredentials()
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.logger.Info("login failed", "reason", "wrong password", "user_id", user.ID)
		return nil, domainerrors.InvalidCredentials()
	}

	token, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	s.logger.Info("user logged in",
		"user_id", user.ID,
		"role", user.Role,
	)

	return &AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenService.AccessTokenDuration().Seconds()),
		User:        NewUserSummary(user),
	}, nil
}

// Logout acknowledges a logout. Tokens are stateless, so there is no
// server-side session to revoke; clients discard the token.
func (s *AuthService) Logout(ctx context.Context, userID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.logger.Info("user logged out", "user_id", userID)
	return "logged out successfully", nil
}

// VerifyAccessToken validates a token and returns the associated user.
// Used by authentication middleware.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, nil, domainerrors.Unauthorized("invalid token").WithCause(err)
	}

	user, err := s.store.GetUser(ctx, claims.UserID())
	if err != nil {
		if domainerrors.Is(err, store.ErrUserNotFound) {
			return nil, nil, domainerrors.Unauthorized("user no longer exists")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	return user, claims, nil
}
