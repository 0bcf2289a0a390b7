// Package search provides full-text search over the book catalog using Bleve.
package search

import (
	"strings"

	"github.com/goodreaders/goodreaders-server/internal/domain"
)

// BookDocument is the document structure stored in the Bleve index.
//
// Title and author are indexed twice: analyzed for relevance-ranked term
// matching, and as lowercase keyword fields (title_folded, author_folded)
// so wildcard queries give case-insensitive substring semantics.
type BookDocument struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Description string   `json:"description,omitempty"`
	Genre       []string `json:"genre,omitempty"`
	CreatedAt   int64    `json:"created_at"` // Unix millis
	UpdatedAt   int64    `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly. The folded
// variants are derived here so callers can't get them out of sync.
func (d *BookDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":            d.ID,
		"title":         d.Title,
		"author":        d.Author,
		"title_folded":  strings.ToLower(d.Title),
		"author_folded": strings.ToLower(d.Author),
		"created_at":    d.CreatedAt,
		"updated_at":    d.UpdatedAt,
	}

	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Genre) > 0 {
		m["genre"] = d.Genre
	}

	return m
}

// BookToDocument converts a domain Book to its index document.
func BookToDocument(book *domain.Book) *BookDocument {
	return &BookDocument{
		ID:          book.ID,
		Title:       book.Title,
		Author:      book.Author,
		Description: book.Description,
		Genre:       book.Genre,
		CreatedAt:   book.CreatedAt.UnixMilli(),
		UpdatedAt:   book.UpdatedAt.UnixMilli(),
	}
}
