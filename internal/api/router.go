package api

import (
	"net/http"

	"github.com/dom/worknest/internal/api/handlers"
	"github.com/dom/worknest/internal/api/middleware"
	"github.com/dom/worknest/internal/config"
	"github.com/dom/worknest/internal/logger"
	"github.com/dom/worknest/internal/metrics"
	"github.com/dom/worknest/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services, cfg *config.Config, db handlers.Pinger, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(logger.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(m.Instrument)
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteErrorMessage(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(services.Auth)
	projectHandler := handlers.NewProjectHandler(services.Projects)
	ticketHandler := handlers.NewTicketHandler(services.Tickets)
	commentHandler := handlers.NewCommentHandler(services.Comments)
	attachmentHandler := handlers.NewAttachmentHandler(services.Attachments, cfg.Upload.MaxSizeBytes)

	authLimiter := middleware.NewRateLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst)
	limitAuth := authLimiter.Middleware(func(r *http.Request) {
		m.RateLimited(r.URL.Path)
	})
	requireAuth := middleware.Auth(services.Auth)

	r.Get("/health", healthHandler.Check)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(limitAuth).Post("/register", authHandler.Register)
			r.With(limitAuth).Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
				r.Post("/refresh", authHandler.Refresh)
				r.Post("/logout", authHandler.Logout)
				r.Post("/change-password", authHandler.ChangePassword)
			})
		})

		// Everything below needs a bearer token
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.List)
				r.Post("/", projectHandler.Create)
				r.Get("/{id}", projectHandler.Get)
				r.Put("/{id}", projectHandler.Update)
				r.Delete("/{id}", projectHandler.Delete)
				r.Post("/{id}/archive", projectHandler.Archive)
				r.Post("/{id}/unarchive", projectHandler.Unarchive)
			})

			r.Route("/tickets", func(r chi.Router) {
				r.Get("/", ticketHandler.List)
				r.Post("/", ticketHandler.Create)
				r.Get("/search", ticketHandler.Search)
				r.Get("/{id}", ticketHandler.Get)
				r.Put("/{id}", ticketHandler.Update)
				r.Delete("/{id}", ticketHandler.Delete)

				r.Get("/{id}/comments", commentHandler.List)
				r.Post("/{id}/comments", commentHandler.Create)

				r.Get("/{id}/attachments", attachmentHandler.List)
				r.Post("/{id}/attachments", attachmentHandler.Upload)
			})

			r.Route("/comments", func(r chi.Router) {
				r.Put("/{id}", commentHandler.Update)
				r.Delete("/{id}", commentHandler.Delete)
			})

			r.Route("/attachments", func(r chi.Router) {
				r.Get("/{id}", attachmentHandler.Download)
				r.Get("/{id}/metadata", attachmentHandler.Get)
				r.Put("/{id}", attachmentHandler.Rename)
				r.Delete("/{id}", attachmentHandler.Delete)
			})
		})
	})

	return r
}
