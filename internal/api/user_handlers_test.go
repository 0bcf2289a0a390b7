package api

import (
	"encoding/base64"
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUser(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/users", map[string]any{
		"name":     "Alice",
		"email":    "Alice@Example.com",
		"password": "SecurePassword123",
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.True(t, envelope.Success)
	assert.NotEmpty(t, envelope.Data.ID)
	assert.Equal(t, "alice@example.com", envelope.Data.Email)
	assert.Equal(t, "user", envelope.Data.Role)
	assert.NotContains(t, resp.Body.String(), "password_hash")
}

func TestRegisterUser_DuplicateEmail(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.register(t, "Alice", "alice@example.com", "SecurePassword123")

	resp := ts.api.Post("/api/v1/users", map[string]any{
		"name":     "Impostor",
		"email":    "ALICE@example.com",
		"password": "AnotherPassword123",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestRegisterUser_WithAvatar(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	imgData := []byte("fake-image-bytes")
	resp := ts.api.Post("/api/v1/users", map[string]any{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "SecurePassword123",
		"avatar":   base64.StdEncoding.EncodeToString(imgData),
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.Avatar)

	// The avatar is served raw outside the envelope.
	img := ts.api.Get("/avatars/" + envelope.Data.Avatar)
	assert.Equal(t, http.StatusOK, img.Code)
	assert.Equal(t, imgData, img.Body.Bytes())
}

func TestListUsers_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/users")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestListAndGetUsers(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	aliceID := ts.register(t, "Alice", "alice@example.com", "SecurePassword123")
	ts.register(t, "Bob", "bob@example.com", "BobsPassword1234")
	token := ts.login(t, "alice@example.com", "SecurePassword123")

	resp := ts.api.Get("/api/v1/users", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)

	var listEnvelope testEnvelope[ListUsersResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listEnvelope))
	assert.Len(t, listEnvelope.Data.Users, 2)

	resp = ts.api.Get("/api/v1/users/"+aliceID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)

	var userEnvelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &userEnvelope))
	assert.Equal(t, "Alice", userEnvelope.Data.Name)

	resp = ts.api.Get("/api/v1/users/user-missing", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSearchUsers(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.register(t, "Alice", "alice@example.com", "SecurePassword123")
	ts.register(t, "Bob", "bob@other.org", "BobsPassword1234")
	token := ts.login(t, "alice@example.com", "SecurePassword123")

	resp := ts.api.Get("/api/v1/users/search?email=example.com", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListUsersResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Users, 1)
	assert.Equal(t, "alice@example.com", envelope.Data.Users[0].Email)
}

func TestUpdateAndDeleteUser(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	userID := ts.register(t, "Alice", "alice@example.com", "SecurePassword123")
	token := ts.login(t, "alice@example.com", "SecurePassword123")

	resp := ts.api.Patch("/api/v1/users/"+userID,
		"Authorization: Bearer "+token,
		map[string]any{"name": "Alice B"},
	)
	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "Alice B", envelope.Data.Name)

	resp = ts.api.Delete("/api/v1/users/"+userID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestUpdateUser_ForbiddenForOtherAccounts(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	aliceID := ts.register(t, "Alice", "alice@example.com", "SecurePassword123")
	ts.register(t, "Bob", "bob@example.com", "BobsPassword1234")
	bobToken := ts.login(t, "bob@example.com", "BobsPassword1234")

	resp := ts.api.Patch("/api/v1/users/"+aliceID,
		"Authorization: Bearer "+bobToken,
		map[string]any{"name": "Hijacked"},
	)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Delete("/api/v1/users/"+aliceID, "Authorization: Bearer "+bobToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestWantToReadUserSurface(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.register(t, "Alice", "alice@example.com", "SecurePassword123")
	token := ts.login(t, "alice@example.com", "SecurePassword123")

	// Default is false for an unmarked book.
	resp := ts.api.Get("/api/v1/users/want-to-read/book-abc", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[WantToReadStatusResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "book-abc", envelope.Data.BookID)
	assert.False(t, envelope.Data.WantToRead)

	// Mark, then verify.
	resp = ts.api.Patch("/api/v1/users/want-to-read/book-abc",
		"Authorization: Bearer "+token,
		map[string]any{"want_to_read": true},
	)
	assert.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.WantToRead)

	resp = ts.api.Get("/api/v1/users/want-to-read/book-abc", "Authorization: Bearer "+token)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.WantToRead)

	// Unmark removes the entry.
	resp = ts.api.Patch("/api/v1/users/want-to-read/book-abc",
		"Authorization: Bearer "+token,
		map[string]any{"want_to_read": false},
	)
	assert.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.WantToRead)
}

func TestWantToReadRequiresAuth(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/users/want-to-read/book-abc")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Patch("/api/v1/users/want-to-read/book-abc", map[string]any{"want_to_read": true})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
