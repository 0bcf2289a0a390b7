package api

import (
	"github.com/goodreaders/goodreaders-server/internal/media/avatars"
	"github.com/goodreaders/goodreaders-server/internal/service"
)

// Services groups the business logic services used by the API server.
type Services struct {
	Auth *service.AuthService
	User *service.UserService
	Book *service.BookService
}

// StorageServices groups file storage handlers used by the API server.
type StorageServices struct {
	Avatars *avatars.Storage
}
