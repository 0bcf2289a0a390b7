package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/goodreaders/goodreaders-server/internal/api"
	"github.com/goodreaders/goodreaders-server/internal/config"
	"github.com/goodreaders/goodreaders-server/internal/logger"
	"github.com/goodreaders/goodreaders-server/internal/service"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown.
const shutdownTimeout = 30 * time.Second

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	avatarStorage := do.MustInvoke[*AvatarStorage](i)

	authService := do.MustInvoke[*service.AuthService](i)
	userService := do.MustInvoke[*service.UserService](i)
	bookService := do.MustInvoke[*service.BookService](i)

	services := &api.Services{
		Auth: authService,
		User: userService,
		Book: bookService,
	}

	storage := &api.StorageServices{
		Avatars: avatarStorage.Storage,
	}

	handler := api.NewServer(cfg, storeHandle.Store, services, storage, log.Logger)

	srv := handler.NewHTTPServer(cfg)

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
