package service

import (
	"context"
	"sync"
	"testing"

	"github.com/goodreaders/goodreaders-server/internal/auth"
	domainerrors "github.com/goodreaders/goodreaders-server/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env, cleanup := setupServices(t)
	defer cleanup()

	user, err := env.users.Register(context.Background(), RegisterRequest{
		Name:     "Alice",
		Email:    "Alice@Example.com",
		Password: "correct-horse-battery",
	}, nil)
	require.NoError(t, err)

	assert.True(t, len(user.ID) > 0)
	assert.Equal(t, "alice@example.com", user.Email, "email is stored normalized")
	assert.Equal(t, "user", string(user.Role))
	assert.NotEqual(t, "correct-horse-battery", user.PasswordHash)

	ok, err := auth.VerifyPassword(user.PasswordHash, "correct-horse-battery")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	registerTestUser(t, env, "Alice", "alice@example.com", "correct-horse-battery")

	_, err := env.users.Register(ctx, RegisterRequest{
		Name:     "Impostor",
		Email:    "ALICE@example.com",
		Password: "another-password",
	}, nil)

	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domainerrors.CodeConflict, de.Code)
}

func TestRegisterShortPassword(t *testing.T) {
	env, cleanup := setupServices(t)
	defer cleanup()

	_, err := env.users.Register(context.Background(), RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "short",
	}, nil)

	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domainerrors.CodeValidation, de.Code)
}

func TestRegisterWithAvatar(t *testing.T) {
	env, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	imgData := []byte("fake-jpeg-bytes")
	user, err := env.users.Register(ctx, RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	}, imgData)
	require.NoError(t, err)
	require.NotEmpty(t, user.Avatar)

	got, err := env.users.GetAvatar(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, imgData, got)
}

func TestGetAvatarNone(t *testing.T) {
	env, cleanup := setupServices(t)
	defer cleanup()

	userID := registerTestUser(t, env, "Alice", "alice@example.com", "correct-horse-battery")

	_, err := env.users.GetAvatar(context.Background(), userID)
	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domainerrors.CodeNotFound, de.Code)
}

func TestUpdateUser(t *testing.T) {
	env, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	userID := registerTestUser(t, env, "Alice", "alice@example.com", "correct-horse-battery")

	newName := "Alice B"
	newPassword := "an-even-better-password"
	updated, err := env.users.UpdateUser(ctx, userID, UpdateUserRequest{
		Name:     &newName,
		Password: &newPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice B", updated.Name)

	ok, err := auth.VerifyPassword(updated.PasswordHash, newPassword)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateUserKeepsWantToReadSet(t *testing.T) {
	env, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	userID := registerTestUser(t, env, "Alice", "alice@example.com", "correct-horse-battery")

	// A toggle landing before a profile edit must not be lost when the
	// edit saves: the edit touches only the requested fields.
	_, err := env.users.SetWantToRead(ctx, userID, "book-x", true)
	require.NoError(t, err)

	newName := "Alice B"
	updated, err := env.users.UpdateUser(ctx, userID, UpdateUserRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Alice B", updated.Name)
	assert.True(t, updated.WantsToRead("book-x"), "profile edit dropped the toggle")

	got, err := env.users.GetWantToReadStatus(ctx, userID, "book-x")
	require.NoError(t, err)
	assert.True(t, got.WantToRead)
}

func TestUpdateUserEmailTaken(t *testing.T) {
	env, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	registerTestUser(t, env, "Alice", "alice@example.com", "correct-horse-battery")
	bobID := registerTestUser(t, env, "Bob", "bob@example.com", "bobs-long-password")

	takenEmail := "alice@example.com"
	_, err := env.users.UpdateUser(ctx, bobID, UpdateUserRequest{Email: &takenEmail})

	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domainerrors.CodeConflict, de.Code)
}

func TestDeleteUser(t *testing.T) {
	env, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	userID := registerTestUser(t, env, "Alice", "alice@example.com", "correct-horse-battery")
	require.NoError(t, env.users.DeleteUser(ctx, userID))

	_, err := env.users.GetUser(ctx, userID)
	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domainerrors.CodeNotFound, de.Code)
}

func TestSearchByEmail(t *testing.T) {
	env, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	registerTestUser(t, env, "Alice", "alice@example.com", "correct-horse-battery")
	registerTestUser(t, env, "Bob", "bob@other.org", "bobs-long-password")

	found, err := env.users.SearchByEmail(ctx, "EXAMPLE.com")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "alice@example.com", found[0].Email)
}

func TestSetWantToRead(t *testing.T) {
	env, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	userID := registerTestUser(t, env, "Alice", "alice@example.com", "correct-horse-battery")

	status, err := env.users.SetWantToRead(ctx, userID, "book-abc", true)
	require.NoError(t, err)
	assert.Equal(t, "book-abc", status.BookID)
	assert.True(t, status.WantToRead)

	got, err := env.users.GetWantToReadStatus(ctx, userID, "book-abc")
	require.NoError(t, err)
	assert.True(t, got.WantToRead)

	status, err = env.users.SetWantToRead(ctx, userID, "book-abc", false)
	require.NoError(t, err)
	assert.False(t, status.WantToRead)

	got, err = env.users.GetWantToReadStatus(ctx, userID, "book-abc")
	require.NoError(t, err)
	assert.False(t, got.WantToRead)
}

func TestSetWantToReadTrimsBookID(t *testing.T) {
	env, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	userID := registerTestUser(t, env, "Alice", "alice@example.com", "correct-horse-battery")

	status, err := env.users.SetWantToRead(ctx, userID, "  book-abc  ", true)
	require.NoError(t, err)
	assert.Equal(t, "book-abc", status.BookID)

	got, err := env.users.GetWantToReadStatus(ctx, userID, "book-abc")
	require.NoError(t, err)
	assert.True(t, got.WantToRead)
}

func TestSetWantToReadEmptyBookID(t *testing.T) {
	env, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	userID := registerTestUser(t, env, "Alice", "alice@example.com", "correct-horse-battery")

	for _, bookID := range []string{"", "   ", "\t\n"} {
		_, err := env.users.SetWantToRead(ctx, userID, bookID, true)
		var de *domainerrors.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, domainerrors.CodeValidation, de.Code)

		_, err = env.users.GetWantToReadStatus(ctx, userID, bookID)
		require.ErrorAs(t, err, &de)
		assert.Equal(t, domainerrors.CodeValidation, de.Code)
	}
}

func TestSetWantToReadUnknownUser(t *testing.T) {
	env, cleanup := setupServices(t)
	defer cleanup()

	_, err := env.users.SetWantToRead(context.Background(), "user-missing", "book-abc", true)
	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domainerrors.CodeNotFound, de.Code)
}

func TestSetWantToReadIdempotent(t *testing.T) {
	env, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	userID := registerTestUser(t, env, "Alice", "alice@example.com", "correct-horse-battery")

	for range 3 {
		status, err := env.users.SetWantToRead(ctx, userID, "book-abc", true)
		require.NoError(t, err)
		assert.True(t, status.WantToRead)
	}

	user, err := env.users.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, user.Books, 1)

	// Removing an entry that never existed still succeeds.
	status, err := env.users.SetWantToRead(ctx, userID, "book-never-marked", false)
	require.NoError(t, err)
	assert.False(t, status.WantToRead)
}

func TestSetWantToReadMaintainsBookReverseList(t *testing.T) {
	env, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	userID := registerTestUser(t, env, "Alice", "alice@example.com", "correct-horse-battery")
	book, err := env.books.CreateBook(ctx, userID, CreateBookRequest{
		Title:  "Dune",
		Author: "Frank Herbert",
	})
	require.NoError(t, err)

	_, err = env.users.SetWantToRead(ctx, userID, book.ID, true)
	require.NoError(t, err)

	got, err := env.books.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, got.HasWantToReadUser(userID))

	_, err = env.users.SetWantToRead(ctx, userID, book.ID, false)
	require.NoError(t, err)

	got, err = env.books.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.False(t, got.HasWantToReadUser(userID))
}

func TestSetWantToReadConcurrentToggles(t *testing.T) {
	env, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	userID := registerTestUser(t, env, "Alice", "alice@example.com", "correct-horse-battery")

	bookIDs := []string{"book-a", "book-b", "book-c", "book-d", "book-e"}
	var wg sync.WaitGroup
	for _, bookID := range bookIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.users.SetWantToRead(ctx, userID, bookID, true)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	user, err := env.users.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, user.Books, len(bookIDs), "no concurrent toggle may be lost")
}

func TestListWantToReadBooks(t *testing.T) {
	env, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	userID := registerTestUser(t, env, "Alice", "alice@example.com", "correct-horse-battery")

	dune, err := env.books.CreateBook(ctx, userID, CreateBookRequest{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)
	hobbit, err := env.books.CreateBook(ctx, userID, CreateBookRequest{Title: "The Hobbit", Author: "J.R.R. Tolkien"})
	require.NoError(t, err)

	_, err = env.users.SetWantToRead(ctx, userID, dune.ID, true)
	require.NoError(t, err)
	// A marked book that has since been deleted is skipped.
	_, err = env.users.SetWantToRead(ctx, userID, "book-gone", true)
	require.NoError(t, err)

	books, err := env.users.ListWantToReadBooks(ctx, userID)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, dune.ID, books[0].ID)
	assert.NotEqual(t, hobbit.ID, books[0].ID)
}
