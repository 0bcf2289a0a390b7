// Package avatars provides storage for user avatar images.
package avatars

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Storage manages avatar filesystem operations.
// Thread-safe for concurrent operations.
type Storage struct {
	basePath string
	mu       sync.RWMutex // Protects file operations
}

// NewStorage creates a new Storage instance for user avatars.
// basePath should be the data directory; avatars are stored in {basePath}/avatars/.
func NewStorage(basePath string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	storagePath := filepath.Join(basePath, "avatars")

	// Create directory if it doesn't exist.
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create avatars directory: %w", err)
	}

	return &Storage{
		basePath: storagePath,
	}, nil
}

// Save stores avatar image data under a fresh random filename and returns it.
// A new filename per upload means stale browser caches never show an old avatar.
func (s *Storage) Save(imgData []byte) (string, error) {
	if len(imgData) == 0 {
		return "", fmt.Errorf("image data cannot be empty")
	}

	filename := uuid.NewString() + ".jpg"

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.basePath, filename)
	if err := os.WriteFile(path, imgData, 0o644); err != nil {
		return "", fmt.Errorf("failed to write avatar file: %w", err)
	}

	return filename, nil
}

// Get retrieves avatar image data by filename.
func (s *Storage) Get(filename string) ([]byte, error) {
	if filename == "" {
		return nil, fmt.Errorf("filename cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("avatar not found for %s: %w", filename, err)
		}
		return nil, fmt.Errorf("failed to read avatar file: %w", err)
	}

	return data, nil
}

// Exists checks if an avatar file exists.
func (s *Storage) Exists(filename string) bool {
	if filename == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(filename))
	return err == nil
}

// Delete removes an avatar file.
func (s *Storage) Delete(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(filename)); err != nil {
		if os.IsNotExist(err) {
			// Already deleted, not an error.
			return nil
		}
		return fmt.Errorf("failed to delete avatar file: %w", err)
	}

	return nil
}

// Hash computes SHA256 hash of an avatar.
// Returns hex-encoded string for ETag/cache validation.
func (s *Storage) Hash(filename string) (string, error) {
	data, err := s.Get(filename)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}

// Path returns the full filesystem path for an avatar filename.
// The filename is sanitized to its base component to stop path traversal.
func (s *Storage) Path(filename string) string {
	return filepath.Join(s.basePath, filepath.Base(filename))
}
