package permissions

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-fin/meridian/internal/platform/httpx"
	"github.com/meridian-fin/meridian/internal/rbac"
	"github.com/meridian-fin/meridian/internal/roles"
)

// Handler manages permission catalog endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	access  roles.AccessControl
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, access roles.AccessControl) *Handler {
	return &Handler{logger: logger, service: service, access: access}
}

// MountRoutes registers permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.access.RequireAny(rbac.PermPermissionView, rbac.PermPermissionManage, rbac.PermRoleManage))
		r.Get("/permissions", h.list)
		r.Get("/permissions/grouped", h.grouped)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.access.RequireAll(rbac.PermPermissionManage))
		r.Post("/permissions/seed", h.seed)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("listing permissions failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) grouped(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Grouped(r.Context())
	if err != nil {
		h.logger.Error("grouping permissions failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) seed(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Seed(r.Context())
	if err != nil {
		h.logger.Error("seeding permissions failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
