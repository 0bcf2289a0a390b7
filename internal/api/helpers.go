package api

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/goodreaders/goodreaders-server/internal/domain"
	"github.com/goodreaders/goodreaders-server/internal/service"
)

// decodeBase64Image decodes a base64 image payload, accepting both bare
// base64 and data URIs ("data:image/png;base64,....").
func decodeBase64Image(encoded string) ([]byte, error) {
	if strings.HasPrefix(encoded, "data:") {
		if idx := strings.IndexByte(encoded, ','); idx >= 0 {
			encoded = encoded[idx+1:]
		}
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// UserResponse contains user information in API responses.
// The password hash never leaves the service layer.
type UserResponse struct {
	ID        string    `json:"id" doc:"User ID"`
	Name      string    `json:"name" doc:"Display name"`
	Email     string    `json:"email" doc:"Email address"`
	Role      string    `json:"role" doc:"User role (admin or user)"`
	Avatar    string    `json:"avatar,omitempty" doc:"Avatar filename"`
	CreatedAt time.Time `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update timestamp"`
}

// mapUserResponse converts a domain user to its API representation.
func mapUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// UserSummaryResponse is the redacted user shape returned by login.
type UserSummaryResponse struct {
	ID     string `json:"id" doc:"User ID"`
	Name   string `json:"name" doc:"Display name"`
	Email  string `json:"email" doc:"Email address"`
	Role   string `json:"role" doc:"User role (admin or user)"`
	Avatar string `json:"avatar,omitempty" doc:"Avatar filename"`
}

// mapUserSummary converts the redacted login summary to its API shape.
func mapUserSummary(summary service.UserSummary) UserSummaryResponse {
	return UserSummaryResponse{
		ID:     summary.ID,
		Name:   summary.Name,
		Email:  summary.Email,
		Role:   summary.Role,
		Avatar: summary.Avatar,
	}
}

// BookResponse contains book data in API responses.
type BookResponse struct {
	ID              string    `json:"id" doc:"Book ID"`
	Title           string    `json:"title" doc:"Book title"`
	Author          string    `json:"author" doc:"Author name"`
	Description     string    `json:"description,omitempty" doc:"Book description"`
	Review          string    `json:"review,omitempty" doc:"Reviewer notes"`
	Cover           string    `json:"cover,omitempty" doc:"Cover image URL"`
	Genre           []string  `json:"genre" doc:"Genre labels"`
	Rating          int       `json:"rating,omitempty" doc:"Rating from 1 to 5"`
	CreatedBy       string    `json:"created_by" doc:"ID of the user who added the book"`
	WantToReadUsers []string  `json:"want_to_read_users" doc:"IDs of users who want to read this book"`
	CreatedAt       time.Time `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt       time.Time `json:"updated_at" doc:"Last update timestamp"`
}

// mapBookResponse converts a domain book to its API representation.
func mapBookResponse(book *domain.Book) BookResponse {
	genre := book.Genre
	if genre == nil {
		genre = []string{}
	}
	wantToRead := book.WantToReadUsers
	if wantToRead == nil {
		wantToRead = []string{}
	}
	return BookResponse{
		ID:              book.ID,
		Title:           book.Title,
		Author:          book.Author,
		Description:     book.Description,
		Review:          book.Review,
		Cover:           book.Cover,
		Genre:           genre,
		Rating:          book.Rating,
		CreatedBy:       book.CreatedBy,
		WantToReadUsers: wantToRead,
		CreatedAt:       book.CreatedAt,
		UpdatedAt:       book.UpdatedAt,
	}
}

// mapBookResponses converts a slice of domain books.
func mapBookResponses(books []*domain.Book) []BookResponse {
	resp := make([]BookResponse, len(books))
	for i, book := range books {
		resp[i] = mapBookResponse(book)
	}
	return resp
}

// mapUserResponses converts a slice of domain users.
func mapUserResponses(users []*domain.User) []UserResponse {
	resp := make([]UserResponse, len(users))
	for i, user := range users {
		resp[i] = mapUserResponse(user)
	}
	return resp
}
