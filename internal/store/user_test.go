package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goodreaders/goodreaders-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(id, email string) *domain.User {
	user := &domain.User{
		Syncable: domain.Syncable{
			ID: id,
		},
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hashed_password",
		Role:         domain.RoleUser,
	}
	user.InitTimestamps()
	return user
}

func TestCreateUser(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	user := newTestUser("user-test123", "test@example.com")

	err := store.CreateUser(ctx, user)
	require.NoError(t, err)

	// Verify user can be retrieved
	retrieved, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)
	assert.Equal(t, user.Email, retrieved.Email)
	assert.Equal(t, user.Name, retrieved.Name)
}

func TestCreateUser_DuplicateID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, newTestUser("user-test123", "test@example.com")))

	err := store.CreateUser(ctx, newTestUser("user-test123", "different@example.com"))
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestCreateUser_DuplicateEmail_CaseInsensitive(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, newTestUser("user-1", "test@example.com")))

	err := store.CreateUser(ctx, newTestUser("user-2", "TEST@Example.COM"))
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestCreateUser_ConcurrentDuplicateEmail(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	// Two registrations racing on the same address conflict on the email
	// index key. Exactly one must win; the loser gets ErrEmailExists, never
	// a raw transaction conflict.
	ids := []string{"user-a", "user-b"}
	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = store.CreateUser(ctx, newTestUser(id, "reader@example.com"))
		}()
	}
	wg.Wait()

	var created, duplicate int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrEmailExists):
			duplicate++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, duplicate)
}

func TestGetUser_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetUser(context.Background(), "user-missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, newTestUser("user-1", "Reader@Example.com")))

	retrieved, err := store.GetUserByEmail(ctx, "reader@example.COM")
	require.NoError(t, err)
	assert.Equal(t, "user-1", retrieved.ID)
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUser_ChangesEmailIndex(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	user := newTestUser("user-1", "old@example.com")
	require.NoError(t, store.CreateUser(ctx, user))

	updated, err := store.UpdateUser(ctx, "user-1", func(u *domain.User) error {
		u.Email = "new@example.com"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)

	_, err = store.GetUserByEmail(ctx, "old@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	retrieved, err := store.GetUserByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", retrieved.ID)
}

func TestUpdateUser_RejectsTakenEmail(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, newTestUser("user-1", "first@example.com")))
	require.NoError(t, store.CreateUser(ctx, newTestUser("user-2", "second@example.com")))

	_, err := store.UpdateUser(ctx, "user-2", func(u *domain.User) error {
		u.Email = "first@example.com"
		return nil
	})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUpdateUser_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.UpdateUser(context.Background(), "user-missing", func(u *domain.User) error {
		u.Name = "Ghost"
		return nil
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUser_KeepsConcurrentWantToReadToggle(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, newTestUser("user-1", "reader@example.com")))

	// A toggle that commits between the profile edit's read and its write
	// must survive: the edit's transaction conflicts, retries, and reapplies
	// on top of the toggled record instead of writing a stale copy back.
	toggled := false
	updated, err := store.UpdateUser(ctx, "user-1", func(u *domain.User) error {
		if !toggled {
			toggled = true
			if _, err := store.SetUserWantToRead(ctx, "user-1", "book-x", true); err != nil {
				return err
			}
		}
		u.Name = "Renamed Reader"
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed Reader", updated.Name)
	assert.True(t, updated.WantsToRead("book-x"), "profile edit dropped the toggle")

	retrieved, err := store.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, retrieved.WantsToRead("book-x"))
	assert.Equal(t, "Renamed Reader", retrieved.Name)
}

func TestDeleteUser_FreesEmail(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, newTestUser("user-1", "reader@example.com")))

	require.NoError(t, store.DeleteUser(ctx, "user-1"))

	_, err := store.GetUser(ctx, "user-1")
	assert.ErrorIs(t, err, ErrUserNotFound)

	// Deleted user's email can be registered again
	err = store.CreateUser(ctx, newTestUser("user-2", "reader@example.com"))
	require.NoError(t, err)
}

func TestListUsers_SkipsDeleted(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, newTestUser("user-1", "a@example.com")))
	require.NoError(t, store.CreateUser(ctx, newTestUser("user-2", "b@example.com")))
	require.NoError(t, store.DeleteUser(ctx, "user-1"))

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "user-2", users[0].ID)
}

func TestSearchUsersByEmail(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, newTestUser("user-1", "alice@example.com")))
	require.NoError(t, store.CreateUser(ctx, newTestUser("user-2", "bob@sample.org")))

	matched, err := store.SearchUsersByEmail(ctx, "Example")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "user-1", matched[0].ID)

	matched, err = store.SearchUsersByEmail(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestSetUserWantToRead(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, newTestUser("user-1", "reader@example.com")))

	updated, err := store.SetUserWantToRead(ctx, "user-1", "book-1", true)
	require.NoError(t, err)
	assert.True(t, updated.WantsToRead("book-1"))

	// Persisted
	retrieved, err := store.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, retrieved.WantsToRead("book-1"))
}

func TestSetUserWantToRead_Idempotent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, newTestUser("user-1", "reader@example.com")))

	_, err := store.SetUserWantToRead(ctx, "user-1", "book-1", true)
	require.NoError(t, err)
	updated, err := store.SetUserWantToRead(ctx, "user-1", "book-1", true)
	require.NoError(t, err)

	assert.Len(t, updated.Books, 1)
}

func TestSetUserWantToRead_RemoveMissingSucceeds(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, newTestUser("user-1", "reader@example.com")))

	updated, err := store.SetUserWantToRead(ctx, "user-1", "book-1", false)
	require.NoError(t, err)
	assert.Empty(t, updated.Books)
}

func TestSetUserWantToRead_UserNotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.SetUserWantToRead(context.Background(), "user-missing", "book-1", true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSetUserWantToRead_CollapsesLegacyDuplicates(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	user := newTestUser("user-1", "reader@example.com")
	// Seed duplicate entries simulating corruption from older non-atomic writes.
	user.Books = []domain.WantToReadEntry{
		{BookID: "book-1", WantToRead: true},
		{BookID: "book-1", WantToRead: true},
	}
	require.NoError(t, store.CreateUser(ctx, user))

	updated, err := store.SetUserWantToRead(ctx, "user-1", "book-2", true)
	require.NoError(t, err)

	count := 0
	for _, entry := range updated.Books {
		if entry.BookID == "book-1" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.True(t, updated.WantsToRead("book-2"))
}

func TestSetUserWantToRead_ConcurrentTogglesDontDropUpdates(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, newTestUser("user-1", "reader@example.com")))

	// Concurrent toggles for different books on the same user record must
	// all survive; a plain overwrite-on-save would silently drop some.
	bookIDs := []string{"book-1", "book-2", "book-3", "book-4", "book-5"}

	var wg sync.WaitGroup
	errs := make([]error, len(bookIDs))
	for i, bookID := range bookIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = store.SetUserWantToRead(ctx, "user-1", bookID, true)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	user, err := store.GetUser(ctx, "user-1")
	require.NoError(t, err)
	for _, bookID := range bookIDs {
		assert.True(t, user.WantsToRead(bookID), "lost update for %s", bookID)
	}
	assert.Len(t, user.Books, len(bookIDs))
}
