// Package domain contains the core business entities and domain logic for the Goodreaders book catalog.
package domain

import (
	"slices"
)

// Book represents a book in the catalog.
type Book struct {
	Syncable
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Description string   `json:"description,omitempty"`
	Review      string   `json:"review"`
	Cover       string   `json:"cover,omitempty"`
	Genre       []string `json:"genre,omitempty"`
	Rating      int      `json:"rating"`
	CreatedBy   string   `json:"created_by"`

	// Denormalized reverse side of the want-to-read relationship: IDs of
	// users who currently want this book. The authoritative state lives on
	// each user record; this list exists for display and discovery.
	WantToReadUsers []string `json:"want_to_read_users,omitempty"`
}

// IsOwnedBy reports whether the given user created this book.
func (b *Book) IsOwnedBy(userID string) bool {
	return b.CreatedBy == userID
}

// HasGenre checks if the book carries the genre, exact string match.
func (b *Book) HasGenre(genre string) bool {
	return slices.Contains(b.Genre, genre)
}

// MatchesAnyGenre reports whether the book's genre list intersects the
// requested set. An empty request matches every book.
func (b *Book) MatchesAnyGenre(genres []string) bool {
	if len(genres) == 0 {
		return true
	}
	for _, g := range genres {
		if slices.Contains(b.Genre, g) {
			return true
		}
	}
	return false
}

// AddWantToReadUser records a user on the book's reverse relationship list.
// If the user is already present, this is a no-op. Updates UpdatedAt on success.
func (b *Book) AddWantToReadUser(userID string) bool {
	if slices.Contains(b.WantToReadUsers, userID) {
		return false // Already present
	}
	b.WantToReadUsers = append(b.WantToReadUsers, userID)
	b.Touch()
	return true
}

// RemoveWantToReadUser removes a user from the book's reverse relationship list.
// Updates UpdatedAt on success. Returns false if the user was not present.
func (b *Book) RemoveWantToReadUser(userID string) bool {
	for i, id := range b.WantToReadUsers {
		if id == userID {
			b.WantToReadUsers = append(b.WantToReadUsers[:i], b.WantToReadUsers[i+1:]...)
			b.Touch()
			return true
		}
	}
	return false
}

// HasWantToReadUser checks if a user ID is on the book's reverse relationship list.
func (b *Book) HasWantToReadUser(userID string) bool {
	return slices.Contains(b.WantToReadUsers, userID)
}
