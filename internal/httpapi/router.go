package httpapi

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ID-VerNe/secure-drop/internal/auth"
	"github.com/ID-VerNe/secure-drop/internal/metrics"
	"github.com/ID-VerNe/secure-drop/internal/middleware"
	"github.com/ID-VerNe/secure-drop/internal/token"
)

// RouterConfig bundles the handlers and policies the router wires together.
type RouterConfig struct {
	Guest     *GuestHandler
	Admin     *AdminHandler
	Signer    *auth.Signer
	Validator *token.Validator
	Logger    *slog.Logger

	// MaxUploadBodyBytes caps the raw request body on the upload route.
	MaxUploadBodyBytes int64
}

// NewRouter builds the full HTTP surface: health endpoints, the admin API
// behind admin credentials and the guest API behind session credentials.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.RequestLogging(cfg.Logger))

	r.Get("/health", cfg.Admin.HandleHealth)
	r.Get("/ready", cfg.Admin.HandleReady)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/admin/login", cfg.Admin.HandleLogin)

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.AdminMiddleware(cfg.Signer))

			r.Post("/tokens", cfg.Admin.HandleCreateToken)
			r.Get("/tokens", cfg.Admin.HandleListTokens)
			r.Get("/tokens/{id}", cfg.Admin.HandleGetToken)
			r.Put("/tokens/{id}", cfg.Admin.HandleUpdateToken)
			r.Post("/tokens/{id}/revoke", cfg.Admin.HandleRevokeToken)
			r.Delete("/tokens/{id}", cfg.Admin.HandleDeleteToken)

			r.Get("/dirs", cfg.Admin.HandleListDirs)
			r.Get("/logs", cfg.Admin.HandleListLogs)
			r.Post("/loglevel", cfg.Admin.HandleSetLogLevel)
		})

		r.Route("/guest", func(r chi.Router) {
			r.Post("/login", cfg.Guest.HandleLogin)

			r.Group(func(r chi.Router) {
				r.Use(auth.GuestMiddleware(cfg.Signer, cfg.Validator))

				r.Get("/files", cfg.Guest.HandleListFiles)
				r.With(middleware.MaxBodySize(cfg.MaxUploadBodyBytes)).
					Post("/upload", cfg.Guest.HandleUpload)
				r.Get("/download/{filename}", cfg.Guest.HandleDownload)
			})
		})
	})

	return r
}
