// Package api provides the HTTP API server and handlers for the Goodreaders application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/goodreaders/goodreaders-server/internal/config"
	"github.com/goodreaders/goodreaders-server/internal/ratelimit"
	"github.com/goodreaders/goodreaders-server/internal/store"
)

// loginRateLimit allows 10 login attempts per minute per client IP,
// with a burst of 5.
const (
	loginRatePerMinute = 10
	loginBurst         = 5
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store            *store.Store
	services         *Services
	storage          *StorageServices
	router           *chi.Mux
	api              huma.API
	logger           *slog.Logger
	loginRateLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg *config.Config, st *store.Store, services *Services, storage *StorageServices, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(remoteAddrMiddleware)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig(cfg.Server.Name, "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:            st,
		services:         services,
		storage:          storage,
		router:           router,
		api:              api,
		logger:           logger,
		loginRateLimiter: ratelimit.New(loginRatePerMinute/60.0, loginBurst),
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()
	s.registerBookRoutes()

	// Avatar images are served raw, outside the JSON envelope.
	s.router.Get("/avatars/{filename}", s.handleServeAvatar)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases server-held resources.
func (s *Server) Close() {
	s.loginRateLimiter.Stop()
}

// NewHTTPServer builds the net/http server around the router using the
// configured timeouts.
func (s *Server) NewHTTPServer(cfg *config.Config) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      s,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}
