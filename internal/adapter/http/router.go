package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/fundsbook/internal/adapter/http/handler"
	"github.com/iho/fundsbook/internal/adapter/http/middleware"
	"github.com/iho/fundsbook/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AuthHandler      *handler.AuthHandler
	BookshelfHandler *handler.BookshelfHandler
	BookHandler      *handler.BookHandler
	EntryHandler     *handler.EntryHandler
	LedgerHandler    *handler.LedgerHandler
	HealthHandler    *handler.HealthHandler

	Authenticator *middleware.Authenticator
	Logger        zerolog.Logger

	// Optional
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	OnReplay         func()
	RateLimiter      *middleware.RateLimiter
	RequestMetrics   middleware.RequestRecorder
	MetricsHandler   http.Handler
	ListStreams      *handler.ListStreamHandler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.RequestMetrics != nil {
		r.Use(middleware.Metrics(cfg.RequestMetrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", cfg.AuthHandler.SignUp)
		r.Post("/auth/signin", cfg.AuthHandler.SignIn)
		r.Post("/auth/password-reset", cfg.AuthHandler.RequestPasswordReset)
		r.Post("/auth/password-reset/confirm", cfg.AuthHandler.ConfirmPasswordReset)

		r.Group(func(r chi.Router) {
			r.Use(cfg.Authenticator.Require)

			// Idempotency middleware for mutating requests
			if cfg.IdempotencyStore != nil {
				idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.OnReplay)
				r.Use(idempotencyMiddleware.Wrap)
			}

			r.Post("/auth/signout", cfg.AuthHandler.SignOut)
			r.Get("/auth/me", cfg.AuthHandler.GetCurrentUser)

			// Bookshelves
			r.Route("/bookshelves", func(r chi.Router) {
				r.Post("/", cfg.BookshelfHandler.Create)
				r.Get("/", cfg.BookshelfHandler.List)
				r.Get("/{id}", cfg.BookshelfHandler.Get)
				r.Delete("/{id}", cfg.BookshelfHandler.Delete)
				r.Post("/{id}/books", cfg.BookHandler.Create)
				r.Get("/{id}/books", cfg.BookHandler.ListByBookshelf)
				if cfg.ListStreams != nil {
					r.Get("/stream", cfg.ListStreams.Bookshelves)
					r.Get("/{id}/books/stream", cfg.ListStreams.Books)
				}
			})

			// Books
			r.Route("/books", func(r chi.Router) {
				r.Get("/{id}", cfg.BookHandler.Get)
				r.Post("/{id}/entries", cfg.EntryHandler.Add)
				r.Get("/{id}/entries", cfg.EntryHandler.List)
				r.Get("/{id}/ledger", cfg.LedgerHandler.Get)
				r.Get("/{id}/ledger/stream", cfg.LedgerHandler.Stream)
			})
		})
	})

	return r
}
