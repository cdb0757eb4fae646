package authz

import (
	"context"
	"log/slog"
	"net/http"
)

// Guard turns route-guard decisions into HTTP redirects. The session is
// resolved per request so tests can construct it fresh.
type Guard struct {
	Resolve      func(ctx context.Context) SessionQueries
	LoginURL     string
	ForbiddenURL string
	Logger       *slog.Logger
}

// NewGuard constructs a guard with the console defaults: unauthenticated
// requests land on the login boundary, unauthorized ones on the dashboard.
func NewGuard(resolve func(ctx context.Context) SessionQueries, logger *slog.Logger) *Guard {
	return &Guard{
		Resolve:      resolve,
		LoginURL:     "/login",
		ForbiddenURL: "/dashboard",
		Logger:       logger,
	}
}

// Require guards a route subtree with the given requirement.
func (g *Guard) Require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sess SessionQueries
			if g.Resolve != nil {
				sess = g.Resolve(r.Context())
			}
			switch decision := Evaluate(sess, req); decision {
			case Authorized:
				next.ServeHTTP(w, r)
			case RedirectLogin:
				http.Redirect(w, r, g.LoginURL, http.StatusSeeOther)
			case RedirectForbidden:
				if g.Logger != nil {
					g.Logger.Warn("route denied", slog.String("path", r.URL.Path))
				}
				http.Redirect(w, r, g.ForbiddenURL, http.StatusSeeOther)
			default:
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		})
	}
}
