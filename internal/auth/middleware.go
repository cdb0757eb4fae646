package auth

import (
	"net/http"
	"strings"

	"github.com/meridian-fin/meridian/internal/platform/httpx"
	"github.com/meridian-fin/meridian/internal/shared"
)

// Middleware provides bearer authentication and permission checks for the
// platform API.
type Middleware struct {
	jwt    *JWTService
	grants GrantSource
}

// NewMiddleware builds the auth middleware.
func NewMiddleware(jwtSvc *JWTService, grants GrantSource) *Middleware {
	return &Middleware{jwt: jwtSvc, grants: grants}
}

// Authenticate validates the Authorization header and installs the principal
// into the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		claims, err := m.jwt.ValidateToken(r.Context(), raw)
		if err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
			return
		}
		ctx := shared.ContextWithPrincipal(r.Context(), shared.Principal{
			UserID: claims.UserID,
			Phone:  claims.Phone,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAny allows the request when the principal holds at least one of the
// permission codes.
func (m *Middleware) RequireAny(codes ...string) func(http.Handler) http.Handler {
	return m.require(codes, false)
}

// RequireAll allows the request only when the principal holds every code.
func (m *Middleware) RequireAll(codes ...string) func(http.Handler) http.Handler {
	return m.require(codes, true)
}

func (m *Middleware) require(codes []string, all bool) func(http.Handler) http.Handler {
	normalized := make([]string, len(codes))
	for i, c := range codes {
		normalized[i] = strings.ToLower(strings.TrimSpace(c))
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
				return
			}
			held, err := m.grants.EffectivePermissions(r.Context(), principal.UserID)
			if err != nil {
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			heldSet := make(map[string]struct{}, len(held))
			for _, h := range held {
				heldSet[strings.ToLower(h)] = struct{}{}
			}
			if all {
				for _, c := range normalized {
					if _, ok := heldSet[c]; !ok {
						httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient permissions")
						return
					}
				}
			} else {
				granted := false
				for _, c := range normalized {
					if _, ok := heldSet[c]; ok {
						granted = true
						break
					}
				}
				if !granted {
					httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient permissions")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
