package providers

import (
	"github.com/samber/do/v2"

	"github.com/goodreaders/goodreaders-server/internal/auth"
	"github.com/goodreaders/goodreaders-server/internal/logger"
	"github.com/goodreaders/goodreaders-server/internal/service"
)

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideUserService provides the user management service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	avatarStorage := do.MustInvoke[*AvatarStorage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, avatarStorage.Storage, log.Logger), nil
}

// ProvideBookService provides the book service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	// Wire to store for automatic indexing on book writes
	storeHandle.SetSearchIndexer(indexHandle.SearchIndex)

	return service.NewBookService(storeHandle.Store, indexHandle.SearchIndex, log.Logger), nil
}
