package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/goodreaders/goodreaders-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Authenticates a user and returns an access token",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Acknowledges logout; access tokens are stateless and expire on their own",
		Tags:        []string{"Authentication"},
	}, s.handleLogout)
}

// === DTOs ===

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254" doc:"User email"`
	Password string `json:"password" validate:"required,max=1024" doc:"User password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// AuthResponse contains the access token and user info.
type AuthResponse struct {
	AccessToken string              `json:"access_token" doc:"PASETO access token"`
	TokenType   string              `json:"token_type" doc:"Token type (Bearer)"`
	ExpiresIn   int64               `json:"expires_in" doc:"Token expiry in seconds"`
	User        UserSummaryResponse `json:"user" doc:"Authenticated user"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Status message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	// Throttle on the RealIP-resolved remote address. Client-supplied
	// forwarding headers are not a throttling identity: a direct caller
	// could rotate them to dodge the limiter.
	key := clientAddr(ctx)
	if !s.loginRateLimiter.Allow(key) {
		s.logger.Warn("login rate limit exceeded", "ip", key)
		return nil, huma.Error429TooManyRequests("Too many login attempts. Please try again later.")
	}

	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &AuthOutput{
		Body: AuthResponse{
			AccessToken: resp.AccessToken,
			TokenType:   resp.TokenType,
			ExpiresIn:   resp.ExpiresIn,
			User:        mapUserSummary(resp.User),
		},
	}, nil
}

func (s *Server) handleLogout(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	// Logout works with or without a valid token; there is no session
	// state to clean up either way.
	userID, _ := GetUserID(ctx)

	msg, err := s.services.Auth.Logout(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: msg}}, nil
}
