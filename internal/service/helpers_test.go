package service

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goodreaders/goodreaders-server/internal/auth"
	"github.com/goodreaders/goodreaders-server/internal/media/avatars"
	"github.com/goodreaders/goodreaders-server/internal/search"
	"github.com/goodreaders/goodreaders-server/internal/store"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// testEnv bundles the services wired against temporary storage.
type testEnv struct {
	store  *store.Store
	search *search.SearchIndex
	auth   *AuthService
	users  *UserService
	books  *BookService
	tokens *auth.TokenService
}

// setupServices creates the full service layer backed by a temp directory.
func setupServices(t *testing.T) (*testEnv, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "service-test-*")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := store.New(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)

	idx, err := search.NewSearchIndex(search.Options{
		DataPath: tmpDir,
		Logger:   logger,
	})
	require.NoError(t, err)
	s.SetSearchIndexer(idx)

	avatarStorage, err := avatars.NewStorage(tmpDir)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(testKeyHex, 15*time.Minute)
	require.NoError(t, err)

	env := &testEnv{
		store:  s,
		search: idx,
		auth:   NewAuthService(s, tokens, logger),
		users:  NewUserService(s, avatarStorage, logger),
		books:  NewBookService(s, idx, logger),
		tokens: tokens,
	}

	cleanup := func() {
		_ = idx.Close()
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return env, cleanup
}
