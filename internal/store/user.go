package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goodreaders/goodreaders-server/internal/domain"
)

const (
	userPrefix        = "user:"
	userByEmailPrefix = "idx:users:email:" // For login lookups
)

var (
	// ErrUserNotFound is returned when a user cannot be found by ID or email.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when attempting to create a user with an existing ID.
	ErrUserExists = errors.New("user already exists")
	// ErrEmailExists is returned when attempting to create a user with an email that's already in use.
	ErrEmailExists = errors.New("email already in use")
)

// CreateUser creates a new user account.
func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	key := []byte(userPrefix + user.ID)

	// Checks if user ID already exists
	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check user exists: %w", err)
	}

	if exists {
		return ErrUserExists
	}

	// Normalize email for the index lookup
	normalizedEmail := domain.NormalizeEmail(user.Email)
	emailKey := []byte(userByEmailPrefix + normalizedEmail)

	// Concurrent registrations with the same address conflict on the email
	// index key; the retry re-reads the committed index and reports
	// ErrEmailExists instead of surfacing the raw conflict.
	return s.updateWithRetry(func(txn *badger.Txn) error {
		// Check if email is already in use
		_, err := txn.Get(emailKey)
		if err == nil {
			return ErrEmailExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check email exists: %w", err)
		}

		// Save user
		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		// Create email index
		if err := txn.Set(emailKey, []byte(user.ID)); err != nil {
			return err
		}

		return nil
	})
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	key := []byte(userPrefix + id)

	var user domain.User
	if err := s.get(key, &user); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	// Check soft delete
	if user.IsDeleted() {
		return nil, ErrUserNotFound
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by email address.
// Lookup is case-insensitive via the normalized email index.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	normalizedEmail := domain.NormalizeEmail(email)
	emailKey := []byte(userByEmailPrefix + normalizedEmail)

	// Look up user ID from email index
	var userID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})

	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}

	// Get the actual user
	return s.GetUser(ctx, userID)
}

// UpdateUser applies mutate to the current user record inside a single
// retried transaction. Reading the record in the same transaction means a
// profile edit never writes back a stale copy of fields it does not touch,
// such as a want-to-read toggle landing between read and save. The email
// index is kept in step when the mutation changes the email.
func (s *Store) UpdateUser(_ context.Context, userID string, mutate func(*domain.User) error) (*domain.User, error) {
	key := []byte(userPrefix + userID)

	var updated *domain.User
	err := s.updateWithRetry(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}

		var user domain.User
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		}); err != nil {
			return fmt.Errorf("unmarshal user: %w", err)
		}

		if user.IsDeleted() {
			return ErrUserNotFound
		}

		oldEmail := domain.NormalizeEmail(user.Email)

		if err := mutate(&user); err != nil {
			return err
		}
		user.Touch()

		data, err := json.Marshal(&user)
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}

		// Update email index if email changed
		if newEmail := domain.NormalizeEmail(user.Email); newEmail != oldEmail {
			oldEmailKey := []byte(userByEmailPrefix + oldEmail)
			if err := txn.Delete(oldEmailKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			// Check new email isn't in use
			newEmailKey := []byte(userByEmailPrefix + newEmail)
			_, err := txn.Get(newEmailKey)
			if err == nil {
				return ErrEmailExists
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("check new email: %w", err)
			}

			if err := txn.Set(newEmailKey, []byte(user.ID)); err != nil {
				return err
			}
		}

		updated = &user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteUser soft-deletes a user and removes its email index so the
// address can be reused by a future registration.
func (s *Store) DeleteUser(_ context.Context, id string) error {
	key := []byte(userPrefix + id)

	return s.updateWithRetry(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}

		var user domain.User
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		}); err != nil {
			return fmt.Errorf("unmarshal user: %w", err)
		}

		if user.IsDeleted() {
			return ErrUserNotFound
		}

		user.MarkDeleted()
		data, err := json.Marshal(&user)
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}

		emailKey := []byte(userByEmailPrefix + domain.NormalizeEmail(user.Email))
		if err := txn.Delete(emailKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		return nil
	})
}

// ListUsers returns all non-deleted users (for admin view).
func (s *Store) ListUsers(_ context.Context) ([]*domain.User, error) {
	prefix := []byte(userPrefix)
	var users []*domain.User

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			err := item.Value(func(val []byte) error {
				var user domain.User
				if unmarshalErr := json.Unmarshal(val, &user); unmarshalErr != nil {
					// Skip malformed users
					return nil //nolint:nilerr // intentionally skip malformed entries
				}

				// Skip deleted users
				if user.IsDeleted() {
					return nil
				}

				users = append(users, &user)
				return nil
			})
			if err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

// SearchUsersByEmail returns non-deleted users whose email contains the
// given fragment, case-insensitive.
func (s *Store) SearchUsersByEmail(ctx context.Context, fragment string) ([]*domain.User, error) {
	fragment = domain.NormalizeEmail(fragment)
	if fragment == "" {
		return nil, nil
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*domain.User, 0, len(users))
	for _, user := range users {
		if strings.Contains(domain.NormalizeEmail(user.Email), fragment) {
			matched = append(matched, user)
		}
	}
	return matched, nil
}

// SetUserWantToRead reconciles the user's want-to-read set for one book ID
// inside a single transaction. Concurrent writes to the same user record are
// detected by Badger's optimistic concurrency control and retried, so a
// toggle for one book never silently drops a concurrent toggle for another.
// The caller is responsible for normalizing bookID first.
func (s *Store) SetUserWantToRead(_ context.Context, userID, bookID string, want bool) (*domain.User, error) {
	key := []byte(userPrefix + userID)

	var updated *domain.User
	err := s.updateWithRetry(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}

		var user domain.User
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		}); err != nil {
			return fmt.Errorf("unmarshal user: %w", err)
		}

		if user.IsDeleted() {
			return ErrUserNotFound
		}

		if user.SetWantToRead(bookID, want) {
			data, err := json.Marshal(&user)
			if err != nil {
				return fmt.Errorf("marshal user: %w", err)
			}
			if err := txn.Set(key, data); err != nil {
				return err
			}
		}

		updated = &user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}
