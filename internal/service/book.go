package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goodreaders/goodreaders-server/internal/domain"
	domainerrors "github.com/goodreaders/goodreaders-server/internal/errors"
	"github.com/goodreaders/goodreaders-server/internal/id"
	"github.com/goodreaders/goodreaders-server/internal/search"
	"github.com/goodreaders/goodreaders-server/internal/store"
)

// BookService orchestrates catalog operations with ownership enforcement
// on mutation. Reads are public.
type BookService struct {
	store  *store.Store
	search *search.SearchIndex
	logger *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(store *store.Store, searchIndex *search.SearchIndex, logger *slog.Logger) *BookService {
	return &BookService{
		store:  store,
		search: searchIndex,
		logger: logger,
	}
}

// CreateBookRequest contains the fields for adding a book.
type CreateBookRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=500"`
	Author      string   `json:"author" validate:"required,min=1,max=200"`
	Description string   `json:"description,omitempty" validate:"omitempty,max=5000"`
	Review      string   `json:"review,omitempty" validate:"omitempty,max=5000"`
	Cover       string   `json:"cover,omitempty" validate:"omitempty,url"`
	Genre       []string `json:"genre,omitempty"`
	Rating      int      `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
}

// CreateBook adds a book to the catalog, attributed to the caller.
func (s *BookService) CreateBook(ctx context.Context, userID string, req CreateBookRequest) (*domain.Book, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	book := &domain.Book{
		Title:           req.Title,
		Author:          req.Author,
		Description:     req.Description,
		Review:          req.Review,
		Cover:           req.Cover,
		Genre:           req.Genre,
		Rating:          req.Rating,
		CreatedBy:       userID,
		WantToReadUsers: []string{},
	}
	book.ID = bookID
	book.InitTimestamps()

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.logger.Info("book created",
		"book_id", bookID,
		"title", req.Title,
		"created_by", userID,
	)

	return book, nil
}

// GetBook retrieves a single book by ID.
func (s *BookService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if domainerrors.Is(err, store.ErrBookNotFound) {
			return nil, domainerrors.NotFound("book not found")
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// ListBooks returns one page of the catalog, optionally filtered to
// books matching any of the given genres.
func (s *BookService) ListBooks(ctx context.Context, params store.PageParams, genres []string) (store.PaginatedResult[*domain.Book], error) {
	return s.store.ListBooksPage(ctx, params, genres)
}

// UpdateBookRequest contains the mutable book fields. Nil pointers
// leave the field unchanged.
type UpdateBookRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Author      *string  `json:"author,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Review      *string  `json:"review,omitempty" validate:"omitempty,max=5000"`
	Cover       *string  `json:"cover,omitempty" validate:"omitempty,url"`
	Genre       []string `json:"genre,omitempty"`
	Rating      *int     `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
}

// UpdateBook applies a partial update. Only the creator may mutate a
// book; existence is checked before ownership so a missing book is
// NotFound rather than Forbidden.
func (s *BookService) UpdateBook(ctx context.Context, userID, bookID string, req UpdateBookRequest) (*domain.Book, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if !book.IsOwnedBy(userID) {
		return nil, domainerrors.Forbidden("you do not own this book")
	}

	// The store re-reads the record inside the update transaction, so the
	// edit only touches the requested fields; concurrent want-to-read
	// changes from other readers are never overwritten.
	updated, err := s.store.UpdateBook(ctx, bookID, func(book *domain.Book) error {
		if req.Title != nil {
			book.Title = *req.Title
		}
		if req.Author != nil {
			book.Author = *req.Author
		}
		if req.Description != nil {
			book.Description = *req.Description
		}
		if req.Review != nil {
			book.Review = *req.Review
		}
		if req.Cover != nil {
			book.Cover = *req.Cover
		}
		if req.Genre != nil {
			book.Genre = req.Genre
		}
		if req.Rating != nil {
			book.Rating = *req.Rating
		}
		return nil
	})
	if err != nil {
		if domainerrors.Is(err, store.ErrBookNotFound) {
			return nil, domainerrors.NotFound("book not found")
		}
		return nil, fmt.Errorf("update book: %w", err)
	}

	s.logger.Info("book updated",
		"book_id", bookID,
		"user_id", userID,
	)

	return updated, nil
}

// DeleteBook removes a book. Same guard as UpdateBook: existence first,
// then ownership.
func (s *BookService) DeleteBook(ctx context.Context, userID, bookID string) error {
	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return err
	}

	if !book.IsOwnedBy(userID) {
		return domainerrors.Forbidden("you do not own this book")
	}

	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	s.logger.Info("book deleted",
		"book_id", bookID,
		"user_id", userID,
	)

	return nil
}

// SearchBooks runs a case-insensitive substring search over title and
// author. A blank query returns an empty result without touching the
// index or the store.
func (s *BookService) SearchBooks(ctx context.Context, queryText string, limit int) ([]*domain.Book, error) {
	queryText = strings.TrimSpace(queryText)
	if queryText == "" {
		return []*domain.Book{}, nil
	}

	hits, err := s.search.Search(ctx, queryText, limit)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	if len(hits) == 0 {
		return []*domain.Book{}, nil
	}

	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.ID)
	}

	books, err := s.store.ListBooksByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load search results: %w", err)
	}

	// Preserve relevance order from the index.
	byID := make(map[string]*domain.Book, len(books))
	for _, book := range books {
		byID[book.ID] = book
	}
	ordered := make([]*domain.Book, 0, len(books))
	for _, hit := range hits {
		if book, ok := byID[hit.ID]; ok {
			ordered = append(ordered, book)
		}
	}

	return ordered, nil
}

// SearchDocumentCount reports the number of indexed books. Used by
// health checks.
func (s *BookService) SearchDocumentCount() (uint64, error) {
	return s.search.DocumentCount()
}

// ListGenres returns the distinct genre strings across the catalog.
func (s *BookService) ListGenres(ctx context.Context) ([]string, error) {
	return s.store.ListGenres(ctx)
}

// ReindexBooks rebuilds the search index from the store. Used on
// startup so the index survives mapping changes and crashes.
func (s *BookService) ReindexBooks(ctx context.Context) error {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}

	if err := s.search.IndexBooks(ctx, books); err != nil {
		return fmt.Errorf("index books: %w", err)
	}

	s.logger.Info("search index refreshed", "books", len(books))
	return nil
}
