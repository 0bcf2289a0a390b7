package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/goodreaders/goodreaders-server/internal/domain"
)

const bookPrefix = "book:"

var (
	// ErrBookNotFound is returned when a book cannot be found by ID.
	ErrBookNotFound = errors.New("book not found")
	// ErrBookExists is returned when attempting to create a book with an existing ID.
	ErrBookExists = errors.New("book already exists")
)

// CreateBook creates a new book.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	key := []byte(bookPrefix + book.ID)

	// Check if it already exists
	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check book exists: %w", err)
	}
	if exists {
		return ErrBookExists
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(book)
		if err != nil {
			return fmt.Errorf("marshal book: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("create book: %w", err)
	}

	s.indexBook(ctx, book)

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "book created",
			slog.String("id", book.ID),
			slog.String("title", book.Title),
			slog.String("author", book.Author),
		)
	}
	return nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(_ context.Context, id string) (*domain.Book, error) {
	key := []byte(bookPrefix + id)

	var book domain.Book
	if err := s.get(key, &book); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	if book.IsDeleted() {
		return nil, ErrBookNotFound
	}

	return &book, nil
}

// UpdateBook applies mutate to the current book record inside a single
// retried transaction. Reading the record in the same transaction means an
// owner edit never writes back a stale copy of fields it does not touch,
// such as another reader landing on the want-to-read list between read and
// save. The in-transaction read also keeps updates from resurrecting
// deleted books.
func (s *Store) UpdateBook(ctx context.Context, bookID string, mutate func(*domain.Book) error) (*domain.Book, error) {
	key := []byte(bookPrefix + bookID)

	var updated *domain.Book
	err := s.updateWithRetry(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrBookNotFound
		}
		if err != nil {
			return fmt.Errorf("get book: %w", err)
		}

		var book domain.Book
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &book)
		}); err != nil {
			return fmt.Errorf("unmarshal book: %w", err)
		}

		if book.IsDeleted() {
			return ErrBookNotFound
		}

		if err := mutate(&book); err != nil {
			return err
		}
		book.Touch()

		data, err := json.Marshal(&book)
		if err != nil {
			return fmt.Errorf("marshal book: %w", err)
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}

		updated = &book
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.indexBook(ctx, updated)
	return updated, nil
}

// DeleteBook removes a book by ID.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	if _, err := s.GetBook(ctx, id); err != nil {
		return err
	}

	key := []byte(bookPrefix + id)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	if s.searchIndexer != nil {
		if err := s.searchIndexer.DeleteBook(ctx, id); err != nil && s.logger != nil {
			s.logger.Warn("failed to remove book from search index", "id", id, "error", err)
		}
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "book deleted", slog.String("id", id))
	}
	return nil
}

// ListBooks returns all non-deleted books.
func (s *Store) ListBooks(_ context.Context) ([]*domain.Book, error) {
	prefix := []byte(bookPrefix)
	var books []*domain.Book

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			err := item.Value(func(val []byte) error {
				var book domain.Book
				if unmarshalErr := json.Unmarshal(val, &book); unmarshalErr != nil {
					// Skip malformed books
					return nil //nolint:nilerr // intentionally skip malformed entries
				}

				if book.IsDeleted() {
					return nil
				}

				books = append(books, &book)
				return nil
			})
			if err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	return books, nil
}

// ListBooksPage returns one page of books, optionally filtered by genre.
// Genre filtering uses OR semantics: a book matches if its genre list
// intersects the requested set. An empty genre filter matches every book.
func (s *Store) ListBooksPage(ctx context.Context, params PageParams, genres []string) (PaginatedResult[*domain.Book], error) {
	params.Validate()

	books, err := s.ListBooks(ctx)
	if err != nil {
		return PaginatedResult[*domain.Book]{}, err
	}

	matched := make([]*domain.Book, 0, len(books))
	for _, book := range books {
		if book.MatchesAnyGenre(genres) {
			matched = append(matched, book)
		}
	}

	return NewPaginatedResult(matched, params), nil
}

// ListGenres returns the distinct set of genre strings across all books.
// Order is not guaranteed.
func (s *Store) ListGenres(ctx context.Context) ([]string, error) {
	books, err := s.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	genres := make([]string, 0)
	for _, book := range books {
		for _, genre := range book.Genre {
			if !seen[genre] {
				seen[genre] = true
				genres = append(genres, genre)
			}
		}
	}
	return genres, nil
}

// ListBooksByIDs returns the non-deleted books for the given IDs, skipping
// any that no longer resolve. Order follows the input IDs.
func (s *Store) ListBooksByIDs(ctx context.Context, ids []string) ([]*domain.Book, error) {
	books := make([]*domain.Book, 0, len(ids))
	for _, bookID := range ids {
		book, err := s.GetBook(ctx, bookID)
		if errors.Is(err, ErrBookNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}

// SetBookWantToReadUser maintains the book's denormalized reverse
// relationship list inside a single transaction, retried on conflict.
func (s *Store) SetBookWantToReadUser(_ context.Context, bookID, userID string, want bool) (*domain.Book, error) {
	key := []byte(bookPrefix + bookID)

	var updated *domain.Book
	err := s.updateWithRetry(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrBookNotFound
		}
		if err != nil {
			return fmt.Errorf("get book: %w", err)
		}

		var book domain.Book
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &book)
		}); err != nil {
			return fmt.Errorf("unmarshal book: %w", err)
		}

		if book.IsDeleted() {
			return ErrBookNotFound
		}

		var changed bool
		if want {
			changed = book.AddWantToReadUser(userID)
		} else {
			changed = book.RemoveWantToReadUser(userID)
		}

		if changed {
			data, err := json.Marshal(&book)
			if err != nil {
				return fmt.Errorf("marshal book: %w", err)
			}
			if err := txn.Set(key, data); err != nil {
				return err
			}
		}

		updated = &book
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// indexBook pushes a book to the search index, logging failures instead of
// failing the write. Search can always be rebuilt from the store.
func (s *Store) indexBook(ctx context.Context, book *domain.Book) {
	if s.searchIndexer == nil {
		return
	}
	if err := s.searchIndexer.IndexBook(ctx, book); err != nil && s.logger != nil {
		s.logger.Warn("failed to index book for search", "id", book.ID, "error", err)
	}
}
