package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-fin/meridian/internal/console"
	"github.com/meridian-fin/meridian/internal/observability"
)

// GatewayParams groups dependencies for building the console gateway router.
type GatewayParams struct {
	Logger         *slog.Logger
	Config         *Config
	ConsoleHandler *console.Handler
	PageHandler    http.HandlerFunc
	Metrics        *observability.Metrics
}

// NewGatewayRouter constructs the console gateway router: the session API
// plus the redirect-guarded page groups.
func NewGatewayRouter(params GatewayParams) http.Handler {
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

	params.ConsoleHandler.MountRoutes(r)

	page := params.PageHandler
	if page == nil {
		page = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}
	}
	params.ConsoleHandler.GuardedPages(r, page)

	r.Get("/login", page)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
