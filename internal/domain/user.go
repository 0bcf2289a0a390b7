package domain

import (
	"slices"
	"strings"
)

// Role represents the user's permission level in the system.
type Role string

const (
	// RoleAdmin grants full administrative access.
	RoleAdmin Role = "admin"
	// RoleUser grants standard user access.
	RoleUser Role = "user"
)

// User represents an authenticated user account in the system.
type User struct {
	Syncable
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	Role         Role              `json:"role"`
	Avatar       string            `json:"avatar,omitempty"`
	Books        []WantToReadEntry `json:"books"`
}

// WantToReadEntry marks a single book as wanted by the user.
// Logically the user's Books field is a set of wanted book IDs; the boolean
// is a legacy representational artifact - an entry with WantToRead=false is
// equivalent to absence, and writes never store false entries.
type WantToReadEntry struct {
	BookID     string `json:"book_id"`
	WantToRead bool   `json:"want_to_read"`
}

// IsAdmin returns true if the user has administrative privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SetWantToRead reconciles the user's want-to-read set for one book ID.
// The rule: at most one entry per book ID; want=true upserts the entry,
// want=false removes it entirely. Duplicate entries for the same book ID
// (left behind by older non-atomic writes) are collapsed on every call.
// Returns true if the set changed, false if the call was a no-op.
// The caller is responsible for validating bookID before calling.
func (u *User) SetWantToRead(bookID string, want bool) bool {
	reconciled := make([]WantToReadEntry, 0, len(u.Books)+1)
	seen := make(map[string]bool, len(u.Books))
	placed := false

	for _, entry := range u.Books {
		if seen[entry.BookID] {
			continue // Collapse legacy duplicates
		}
		seen[entry.BookID] = true

		if entry.BookID == bookID {
			if want {
				// Keep the entry in its original position.
				reconciled = append(reconciled, WantToReadEntry{BookID: bookID, WantToRead: true})
				placed = true
			}
			continue
		}
		reconciled = append(reconciled, entry)
	}

	if want && !placed {
		reconciled = append(reconciled, WantToReadEntry{BookID: bookID, WantToRead: true})
	}

	if slices.Equal(u.Books, reconciled) {
		return false
	}
	u.Books = reconciled
	u.Touch()
	return true
}

// WantsToRead reports whether the user has marked the given book as wanted.
// A missing entry and an entry with WantToRead=false both count as not wanted.
func (u *User) WantsToRead(bookID string) bool {
	for _, entry := range u.Books {
		if entry.BookID == bookID && entry.WantToRead {
			return true
		}
	}
	return false
}

// NormalizeBookID trims surrounding whitespace from a book ID.
// Matching is exact-string after trim; case is deliberately preserved.
func NormalizeBookID(bookID string) string {
	return strings.TrimSpace(bookID)
}

// NormalizeEmail lowercases and trims an email for case-insensitive matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
