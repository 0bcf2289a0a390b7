package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/goodreaders/goodreaders-server/internal/config"
	"github.com/goodreaders/goodreaders-server/internal/logger"
	"github.com/goodreaders/goodreaders-server/internal/media/avatars"
)

// AvatarStorage wraps the avatar file storage.
type AvatarStorage struct {
	*avatars.Storage
}

// ProvideAvatarStorage provides the avatar file storage.
func ProvideAvatarStorage(i do.Injector) (*AvatarStorage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := avatars.NewStorage(cfg.Data.BasePath)
	if err != nil {
		return nil, fmt.Errorf("avatar storage: %w", err)
	}

	log.Info("Avatar storage initialized")

	return &AvatarStorage{Storage: storage}, nil
}
