package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"genesis-api/internal/config"
	"genesis-api/internal/handler"
	"genesis-api/internal/metrics"
	"genesis-api/internal/middleware"
	"genesis-api/pkg/identity"
)

type Handlers struct {
	Health  *handler.HealthHandler
	Account *handler.AccountHandler
	Item    *handler.ItemHandler
	// Auth is nil unless the service issues its own tokens.
	Auth *handler.AuthHandler
}

// New builds the routed handler. A nil limiter keeps rate limiting in process.
func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, limiter middleware.Limiter, reg *metrics.Registry, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(limiter, cfg.RateLimitRPM, cfg.AuthRateLimitRPM, "/health", "/metrics")

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics(reg))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Version(cfg.APIVersion))
	r.Use(rateLimitMiddleware.Handler)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/", h.Health.Root)
	r.Get("/health", h.Health.Health)
	r.Get("/health/ready", h.Health.Ready)
	r.Method(http.MethodGet, "/metrics", reg.Handler())

	if h.Auth != nil {
		r.Route(middleware.AuthPathPrefix, func(auth chi.Router) {
			auth.Post("/signup", h.Auth.Signup)
			auth.Post("/signin", h.Auth.Signin)
		})
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(authMiddleware.RequireAuth)

		api.Get("/me", h.Account.Me)
		api.Get("/protected", h.Account.Protected)
		api.With(authMiddleware.RequireRoles(identity.RoleAdmin)).Get("/admin", h.Account.Admin)
		api.Post("/data", h.Account.Data)

		api.Route("/items", func(items chi.Router) {
			items.Get("/", h.Item.List)
			items.Get("/feed", h.Item.Feed)
			items.Get("/{id}", h.Item.Get)
			items.With(authMiddleware.RequireRoles(identity.RoleAdmin, identity.RoleUser)).Post("/", h.Item.Create)
		})
	})

	return r
}
