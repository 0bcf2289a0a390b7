package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goodreaders/goodreaders-server/internal/auth"
	"github.com/goodreaders/goodreaders-server/internal/domain"
	domainerrors "github.com/goodreaders/goodreaders-server/internal/errors"
	"github.com/goodreaders/goodreaders-server/internal/id"
	"github.com/goodreaders/goodreaders-server/internal/media/avatars"
	"github.com/goodreaders/goodreaders-server/internal/store"
)

// UserService orchestrates account management and the per-user
// want-to-read set.
type UserService struct {
	store   *store.Store
	avatars *avatars.Storage
	logger  *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(store *store.Store, avatarStorage *avatars.Storage, logger *slog.Logger) *UserService {
	return &UserService{
		store:   store,
		avatars: avatarStorage,
		logger:  logger,
	}
}

// RegisterRequest contains the fields for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

// Register creates a new user account. The optional avatarData is
// stored on disk and referenced by filename on the user record.
func (s *UserService) Register(ctx context.Context, req RegisterRequest, avatarData []byte) (*domain.User, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        domain.NormalizeEmail(req.Email),
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
		Books:        []domain.WantToReadEntry{},
	}
	user.ID = userID
	user.InitTimestamps()

	if len(avatarData) > 0 {
		filename, err := s.avatars.Save(avatarData)
		if err != nil {
			return nil, fmt.Errorf("save avatar: %w", err)
		}
		user.Avatar = filename
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if domainerrors.Is(err, store.ErrEmailExists) {
			return nil, domainerrors.Conflict("email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered",
		"user_id", user.ID,
		"role", user.Role,
	)

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if domainerrors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListUsers returns all active users.
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.store.ListUsers(ctx)
}

// SearchByEmail returns users whose email contains the given fragment,
// case-insensitively.
func (s *UserService) SearchByEmail(ctx context.Context, fragment string) ([]*domain.User, error) {
	return s.store.SearchUsersByEmail(ctx, fragment)
}

// UpdateUserRequest contains the mutable profile fields. Nil pointers
// leave the field unchanged.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=1024"`
}

// UpdateUser applies a partial profile update. A new password is
// re-hashed; a new email must not collide with another account.
func (s *UserService) UpdateUser(ctx context.Context, userID string, req UpdateUserRequest) (*domain.User, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	var passwordHash string
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		passwordHash = hash
	}

	// The store re-reads the record inside the update transaction, so the
	// edit only touches the requested fields even when other writers (a
	// want-to-read toggle, say) land concurrently.
	user, err := s.store.UpdateUser(ctx, userID, func(user *domain.User) error {
		if req.Name != nil {
			user.Name = *req.Name
		}
		if req.Email != nil {
			user.Email = domain.NormalizeEmail(*req.Email)
		}
		if req.Password != nil {
			user.PasswordHash = passwordHash
		}
		return nil
	})
	if err != nil {
		if domainerrors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		if domainerrors.Is(err, store.ErrEmailExists) {
			return nil, domainerrors.Conflict("email already in use")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("user updated", "user_id", userID)

	return user, nil
}

// DeleteUser removes a user account. Their avatar file is deleted as
// well; want-to-read state lives on the user record and goes with it.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if user.Avatar != "" {
		if err := s.avatars.Delete(user.Avatar); err != nil {
			s.logger.Warn("failed to delete avatar file",
				"user_id", userID,
				"filename", user.Avatar,
				"error", err,
			)
		}
	}

	s.logger.Info("user deleted", "user_id", userID)

	return nil
}

// UpdateAvatar stores a new avatar image and points the user at it.
func (s *UserService) UpdateAvatar(ctx context.Context, userID string, imgData []byte) (*domain.User, error) {
	// Check the user first so a missing account does not leave an orphaned
	// image file on disk.
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	filename, err := s.avatars.Save(imgData)
	if err != nil {
		return nil, fmt.Errorf("save avatar: %w", err)
	}

	var oldAvatar string
	user, err := s.store.UpdateUser(ctx, userID, func(user *domain.User) error {
		oldAvatar = user.Avatar
		user.Avatar = filename
		return nil
	})
	if err != nil {
		if domainerrors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	if oldAvatar != "" {
		if err := s.avatars.Delete(oldAvatar); err != nil {
			s.logger.Warn("failed to delete previous avatar",
				"user_id", userID,
				"filename", oldAvatar,
				"error", err,
			)
		}
	}

	return user, nil
}

// GetAvatar returns the avatar image bytes for a user.
func (s *UserService) GetAvatar(ctx context.Context, userID string) ([]byte, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Avatar == "" {
		return nil, domainerrors.NotFound("user has no avatar")
	}

	data, err := s.avatars.Get(user.Avatar)
	if err != nil {
		return nil, domainerrors.NotFound("avatar not found").WithCause(err)
	}
	return data, nil
}

// WantToReadStatus reports whether a user wants to read a book.
type WantToReadStatus struct {
	BookID     string `json:"book_id"`
	WantToRead bool   `json:"want_to_read"`
}

// SetWantToRead marks or unmarks a book on the user's want-to-read set.
// The operation is idempotent: marking an already-marked book or
// unmarking an absent one succeeds without changing state. Only a
// missing user is an error.
func (s *UserService) SetWantToRead(ctx context.Context, userID, bookID string, want bool) (*WantToReadStatus, error) {
	bookID = domain.NormalizeBookID(bookID)
	if bookID == "" {
		return nil, domainerrors.Validation("book id cannot be empty")
	}

	user, err := s.store.SetUserWantToRead(ctx, userID, bookID, want)
	if err != nil {
		if domainerrors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("set want-to-read: %w", err)
	}

	// Keep the book's reverse list in step. The set itself does not
	// require the book to exist, so a missing book is not an error here.
	if _, err := s.store.SetBookWantToReadUser(ctx, bookID, userID, want); err != nil {
		if !domainerrors.Is(err, store.ErrBookNotFound) {
			s.logger.Warn("failed to update book want-to-read list",
				"book_id", bookID,
				"user_id", userID,
				"error", err,
			)
		}
	}

	s.logger.Info("want-to-read updated",
		"user_id", userID,
		"book_id", bookID,
		"want_to_read", want,
	)

	return &WantToReadStatus{
		BookID:     bookID,
		WantToRead: user.WantsToRead(bookID),
	}, nil
}

// GetWantToReadStatus returns the want-to-read flag for one book,
// defaulting to false when no entry exists.
func (s *UserService) GetWantToReadStatus(ctx context.Context, userID, bookID string) (*WantToReadStatus, error) {
	bookID = domain.NormalizeBookID(bookID)
	if bookID == "" {
		return nil, domainerrors.Validation("book id cannot be empty")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &WantToReadStatus{
		BookID:     bookID,
		WantToRead: user.WantsToRead(bookID),
	}, nil
}

// ListWantToReadBooks returns the books the user has marked as wanted.
// Books deleted since being marked are skipped.
func (s *UserService) ListWantToReadBooks(ctx context.Context, userID string) ([]*domain.Book, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(user.Books))
	for _, entry := range user.Books {
		if entry.WantToRead {
			ids = append(ids, entry.BookID)
		}
	}

	books, err := s.store.ListBooksByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list want-to-read books: %w", err)
	}
	return books, nil
}
