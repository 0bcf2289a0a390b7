package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/goodreaders/goodreaders-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "registerUser",
		Method:      http.MethodPost,
		Path:        "/api/v1/users",
		Summary:     "Register new user",
		Description: "Creates a new user account with an optional avatar",
		Tags:        []string{"Users"},
	}, s.handleRegisterUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/users",
		Summary:     "List users",
		Description: "Returns all registered users",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/search",
		Summary:     "Search users by email",
		Description: "Returns users whose email contains the given fragment",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchUsers)

	huma.Register(s.api, huma.Operation{
		OperationID: "getWantToReadStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/want-to-read/{bookId}",
		Summary:     "Get want-to-read status",
		Description: "Returns whether the current user wants to read the book",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetMyWantToRead)

	huma.Register(s.api, huma.Operation{
		OperationID: "setWantToReadStatus",
		Method:      http.MethodPatch,
		Path:        "/api/v1/users/want-to-read/{bookId}",
		Summary:     "Set want-to-read status",
		Description: "Marks or unmarks the book on the current user's want-to-read list",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetMyWantToRead)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}",
		Summary:     "Get user",
		Description: "Returns a user by ID",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateUser",
		Method:      http.MethodPatch,
		Path:        "/api/v1/users/{id}",
		Summary:     "Update user",
		Description: "Applies a partial profile update",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteUser",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/{id}",
		Summary:     "Delete user",
		Description: "Removes a user account",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "uploadUserAvatar",
		Method:      http.MethodPut,
		Path:        "/api/v1/users/{id}/avatar",
		Summary:     "Upload avatar image",
		Description: "Replaces the user's avatar image",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUploadAvatar)
}

// === DTOs ===

// RegisterUserRequest is the request body for registration.
type RegisterUserRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100" doc:"Display name"`
	Email    string `json:"email" validate:"required,email,max=254" doc:"Email address"`
	Password string `json:"password" validate:"required,min=8,max=1024" doc:"Password"`
	Avatar   string `json:"avatar,omitempty" doc:"Base64-encoded avatar image"`
}

// RegisterUserInput wraps the registration request for Huma.
type RegisterUserInput struct {
	Body RegisterUserRequest
}

// UserOutput wraps a single user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// ListUsersResponse contains a list of users.
type ListUsersResponse struct {
	Users []UserResponse `json:"users" doc:"Registered users"`
}

// ListUsersOutput wraps the list users response for Huma.
type ListUsersOutput struct {
	Body ListUsersResponse
}

// SearchUsersInput contains the email fragment to search for.
type SearchUsersInput struct {
	Email string `query:"email" doc:"Email fragment to match"`
}

// GetUserInput contains parameters for fetching a user.
type GetUserInput struct {
	ID string `path:"id" doc:"User ID"`
}

// UpdateUserRequest is the request body for a profile update.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty" doc:"New display name"`
	Email    *string `json:"email,omitempty" doc:"New email address"`
	Password *string `json:"password,omitempty" doc:"New password"`
}

// UpdateUserInput wraps the update request for Huma.
type UpdateUserInput struct {
	ID   string `path:"id" doc:"User ID"`
	Body UpdateUserRequest
}

// DeleteUserInput contains parameters for deleting a user.
type DeleteUserInput struct {
	ID string `path:"id" doc:"User ID"`
}

// UploadAvatarInput contains the raw avatar image upload.
type UploadAvatarInput struct {
	ID          string `path:"id" doc:"User ID"`
	ContentType string `header:"Content-Type"`
	RawBody     []byte
}

// WantToReadPathInput identifies a book on the want-to-read surface.
type WantToReadPathInput struct {
	BookID string `path:"bookId" doc:"Book ID"`
}

// SetWantToReadRequest is the request body for toggling want-to-read.
type SetWantToReadRequest struct {
	WantToRead bool `json:"want_to_read" doc:"Whether the book is wanted"`
}

// SetWantToReadInput wraps the toggle request for Huma.
type SetWantToReadInput struct {
	BookID string `path:"bookId" doc:"Book ID"`
	Body   SetWantToReadRequest
}

// WantToReadStatusResponse reports the want-to-read flag for a book.
type WantToReadStatusResponse struct {
	BookID     string `json:"book_id" doc:"Book ID"`
	WantToRead bool   `json:"want_to_read" doc:"Whether the book is wanted"`
}

// WantToReadStatusOutput wraps the status response for Huma.
type WantToReadStatusOutput struct {
	Body WantToReadStatusResponse
}

// === Handlers ===

func (s *Server) handleRegisterUser(ctx context.Context, input *RegisterUserInput) (*UserOutput, error) {
	var avatarData []byte
	if input.Body.Avatar != "" {
		decoded, err := decodeBase64Image(input.Body.Avatar)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid avatar image encoding")
		}
		avatarData = decoded
	}

	user, err := s.services.User.Register(ctx, service.RegisterRequest{
		Name:     input.Body.Name,
		Email:    input.Body.Email,
		Password: input.Body.Password,
	}, avatarData)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleListUsers(ctx context.Context, _ *struct{}) (*ListUsersOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	users, err := s.services.User.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	return &ListUsersOutput{Body: ListUsersResponse{Users: mapUserResponses(users)}}, nil
}

func (s *Server) handleSearchUsers(ctx context.Context, input *SearchUsersInput) (*ListUsersOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	users, err := s.services.User.SearchByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	return &ListUsersOutput{Body: ListUsersResponse{Users: mapUserResponses(users)}}, nil
}

func (s *Server) handleGetUser(ctx context.Context, input *GetUserInput) (*UserOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	user, err := s.services.User.GetUser(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleUpdateUser(ctx context.Context, input *UpdateUserInput) (*UserOutput, error) {
	if err := s.RequireSelfOrAdmin(ctx, input.ID); err != nil {
		return nil, err
	}

	user, err := s.services.User.UpdateUser(ctx, input.ID, service.UpdateUserRequest{
		Name:     input.Body.Name,
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleDeleteUser(ctx context.Context, input *DeleteUserInput) (*MessageOutput, error) {
	if err := s.RequireSelfOrAdmin(ctx, input.ID); err != nil {
		return nil, err
	}

	if err := s.services.User.DeleteUser(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "user deleted"}}, nil
}

func (s *Server) handleUploadAvatar(ctx context.Context, input *UploadAvatarInput) (*UserOutput, error) {
	if err := s.RequireSelfOrAdmin(ctx, input.ID); err != nil {
		return nil, err
	}

	if !isValidImageType(input.ContentType) {
		return nil, huma.Error400BadRequest(
			fmt.Sprintf("invalid image type '%s', must be image/jpeg, image/png, or image/webp", input.ContentType),
		)
	}

	user, err := s.services.User.UpdateAvatar(ctx, input.ID, input.RawBody)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleGetMyWantToRead(ctx context.Context, input *WantToReadPathInput) (*WantToReadStatusOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	status, err := s.services.User.GetWantToReadStatus(ctx, userID, input.BookID)
	if err != nil {
		return nil, err
	}

	return &WantToReadStatusOutput{Body: mapWantToReadStatus(status)}, nil
}

func (s *Server) handleSetMyWantToRead(ctx context.Context, input *SetWantToReadInput) (*WantToReadStatusOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	status, err := s.services.User.SetWantToRead(ctx, userID, input.BookID, input.Body.WantToRead)
	if err != nil {
		return nil, err
	}

	return &WantToReadStatusOutput{Body: mapWantToReadStatus(status)}, nil
}

// handleServeAvatar streams an avatar image (chi direct, not huma).
func (s *Server) handleServeAvatar(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" {
		http.Error(w, "filename required", http.StatusBadRequest)
		return
	}

	data, err := s.storage.Avatars.Get(filename)
	if err != nil {
		http.Error(w, "avatar not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func mapWantToReadStatus(status *service.WantToReadStatus) WantToReadStatusResponse {
	return WantToReadStatusResponse{
		BookID:     status.BookID,
		WantToRead: status.WantToRead,
	}
}

// isValidImageType checks if the content type is a valid image type.
// Handles content types with parameters (e.g., "image/jpeg; charset=utf-8").
func isValidImageType(contentType string) bool {
	mediaType := contentType
	if before, _, ok := strings.Cut(contentType, ";"); ok {
		mediaType = strings.TrimSpace(before)
	}

	switch mediaType {
	case "image/jpeg", "image/png", "image/webp":
		return true
	default:
		return false
	}
}
