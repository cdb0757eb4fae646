package console

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-fin/meridian/internal/authz"
	"github.com/meridian-fin/meridian/internal/nav"
	"github.com/meridian-fin/meridian/internal/platform/httpx"
	"github.com/meridian-fin/meridian/internal/rbac"
	"github.com/meridian-fin/meridian/internal/session"
	"github.com/meridian-fin/meridian/internal/syncer"
)

const sidCookie = "meridian_sid"

// Handler serves the console session endpoints: login, logout, the current
// user, derived capabilities and the filtered navigation tree.
type Handler struct {
	logger   *slog.Logger
	manager  *Manager
	api      *syncer.Client
	secure   bool
	validate *validator.Validate
}

// NewHandler builds Handler instance. secure marks the session cookie for
// HTTPS-only deployments.
func NewHandler(logger *slog.Logger, manager *Manager, api *syncer.Client, secure bool) *Handler {
	return &Handler{
		logger:   logger,
		manager:  manager,
		api:      api,
		secure:   secure,
		validate: validator.New(),
	}
}

// MountRoutes registers console routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/session/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(h.WithSession)
		r.Post("/session/logout", h.logout)
		r.Get("/session/me", h.me)
		r.Post("/session/refresh", h.refresh)
		r.Post("/session/sync", h.syncNow)
		r.Patch("/session/profile", h.updateProfile)
		r.Get("/session/capabilities", h.capabilities)
		r.Get("/session/nav", h.navigation)
	})
}

// WithSession resolves the sid cookie into a Session and installs it into
// the request context. Requests without a cookie get a fresh, signed-out
// session.
func (h *Handler) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if c, err := r.Cookie(sidCookie); err == nil {
			sid = c.Value
		}
		if sid == "" {
			var err error
			sid, err = NewSID()
			if err != nil {
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			h.setCookie(w, sid)
		}
		sess, err := h.manager.Get(r.Context(), sid)
		if err != nil {
			h.logger.Error("session restore failed", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
	})
}

type consoleLoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req consoleLoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.api.Login(r.Context(), req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, syncer.ErrUnauthenticated) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
			return
		}
		h.logger.Error("login failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upstream Error", "platform API unavailable")
		return
	}

	sid, err := NewSID()
	if err != nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess, err := h.manager.Get(r.Context(), sid)
	if err != nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if err := sess.Store.SetAuth(r.Context(), result.User, result.AccessToken, result.RefreshToken); err != nil {
		h.logger.Error("session persist failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	h.setCookie(w, sid)
	httpx.JSON(w, http.StatusOK, map[string]any{"user": result.User})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	access := sess.Store.AccessToken()
	refresh := sess.Store.RefreshToken()

	// Local state clears first so a slow upstream call cannot leave the
	// browser signed in.
	if err := sess.Store.Logout(r.Context()); err != nil {
		h.logger.Error("session clear failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	h.manager.Drop(sess.ID)
	if refresh != "" {
		if err := h.api.Logout(r.Context(), access, refresh); err != nil {
			h.logger.Warn("upstream logout failed", slog.Any("error", err))
		}
	}
	h.clearCookie(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	if err := sess.Sync.Sync(r.Context()); err != nil && !errors.Is(err, syncer.ErrNoAccessToken) {
		h.respondSyncError(w, err)
		return
	}
	snap := sess.Store.Snapshot()
	httpx.JSON(w, http.StatusOK, map[string]any{
		"isAuthenticated": snap.IsAuthenticated,
		"user":            snap.User,
	})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	refresh := sess.Store.RefreshToken()
	if refresh == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no session")
		return
	}
	epoch := sess.Store.Epoch()
	result, err := h.api.Refresh(r.Context(), refresh)
	if err != nil {
		if errors.Is(err, syncer.ErrUnauthenticated) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session expired")
			return
		}
		h.logger.Error("refresh failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upstream Error", "platform API unavailable")
		return
	}
	if err := sess.Store.SetAuthIfEpoch(r.Context(), epoch, result.User, result.AccessToken, result.RefreshToken); err != nil {
		// A logout won the race; the rotated tokens are dropped.
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session ended")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": result.User})
}

// syncNow bypasses the staleness window, for views that need the freshest
// role and permission sets right after a known server-side change.
func (h *Handler) syncNow(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	if err := sess.Sync.SyncNow(r.Context()); err != nil && !errors.Is(err, syncer.ErrNoAccessToken) {
		h.respondSyncError(w, err)
		return
	}
	snap := sess.Store.Snapshot()
	httpx.JSON(w, http.StatusOK, map[string]any{
		"isAuthenticated": snap.IsAuthenticated,
		"user":            snap.User,
	})
}

type profilePatchRequest struct {
	Status        *string                      `json:"status" validate:"omitempty,min=1"`
	PhoneVerified *bool                        `json:"phoneVerified"`
	Customer      *session.CustomerProfile     `json:"customer"`
	Collaborator  *session.CollaboratorProfile `json:"collaborator"`
}

// updateProfile patches the cached user after a confirmed server-side change
// without a full refetch. Roles and permissions are never patchable here;
// those only move through the full-replace sync path.
func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	if !sess.Store.IsAuthenticated() {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no active session")
		return
	}
	var req profilePatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	err := sess.Store.UpdateUser(r.Context(), session.UserPatch{
		Status:        req.Status,
		PhoneVerified: req.PhoneVerified,
		Customer:      req.Customer,
		Collaborator:  req.Collaborator,
	})
	if err != nil {
		h.logger.Error("profile patch failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	snap := sess.Store.Snapshot()
	httpx.JSON(w, http.StatusOK, map[string]any{"user": snap.User})
}

func (h *Handler) capabilities(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	if err := sess.Sync.Sync(r.Context()); err != nil && !errors.Is(err, syncer.ErrNoAccessToken) {
		h.respondSyncError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sess.Caps.For(sess.Store))
}

func (h *Handler) navigation(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	if err := sess.Sync.Sync(r.Context()); err != nil && !errors.Is(err, syncer.ErrNoAccessToken) {
		h.respondSyncError(w, err)
		return
	}
	var items []nav.Item
	if r.URL.Query().Get("menu") == "admin" {
		items = nav.AdminMenu()
	} else {
		items = nav.ConsoleMenu()
	}
	filtered := nav.Filter(items, sess.Store)
	httpx.JSON(w, http.StatusOK, filtered)
}

func (h *Handler) respondSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, syncer.ErrNoAccessToken), errors.Is(err, syncer.ErrUnauthenticated):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no active session")
	default:
		h.logger.Error("session sync failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upstream Error", "platform API unavailable")
	}
}

func (h *Handler) setCookie(w http.ResponseWriter, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sidCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sidCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RouteGuard builds an authz guard that resolves the session store from the
// request context. It backs the guarded page groups of the console.
func (h *Handler) RouteGuard() *authz.Guard {
	return authz.NewGuard(func(ctx context.Context) authz.SessionQueries {
		sess, ok := SessionFromContext(ctx)
		if !ok {
			return nil
		}
		return sess.Store
	}, h.logger)
}

// GuardedPages mounts redirect-guarded page groups in the shape the console
// UI expects: /admin requires the supporter tier, the access-control pages
// require role management.
func (h *Handler) GuardedPages(r chi.Router, serve http.HandlerFunc) {
	guard := h.RouteGuard()
	r.Group(func(r chi.Router) {
		r.Use(h.WithSession)
		r.Group(func(r chi.Router) {
			r.Use(guard.Require(authz.Requirement{AnyRoles: []string{rbac.RoleSupporter, rbac.RoleManager, rbac.RoleAdmin}}))
			r.Get("/admin", serve)
			r.Get("/admin/kyc", serve)
		})
		r.Group(func(r chi.Router) {
			r.Use(guard.Require(authz.Requirement{AnyPermissions: []string{rbac.PermRoleManage}}))
			r.Get("/admin/roles", serve)
		})
		r.Group(func(r chi.Router) {
			r.Use(guard.Require(authz.Requirement{}))
			r.Get("/dashboard", serve)
		})
	})
}
