package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-fin/meridian/internal/auth"
	"github.com/meridian-fin/meridian/internal/observability"
	"github.com/meridian-fin/meridian/internal/permissions"
	"github.com/meridian-fin/meridian/internal/roles"
	"github.com/meridian-fin/meridian/internal/users"
)

// RouterParams groups dependencies for building the platform API router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	AuthHandler        *auth.Handler
	AuthMiddleware     *auth.Middleware
	RolesHandler       *roles.Handler
	UsersHandler       *users.Handler
	PermissionsHandler *permissions.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the platform API router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthRateLimit())
		params.AuthHandler.MountRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.Authenticate)
		params.RolesHandler.MountRoutes(r)
		params.UsersHandler.MountRoutes(r)
		params.PermissionsHandler.MountRoutes(r)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
