package roles

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-fin/meridian/internal/platform/httpx"
	"github.com/meridian-fin/meridian/internal/rbac"
	"github.com/meridian-fin/meridian/internal/shared"
)

// AccessControl wraps the permission middleware needed by the handler.
type AccessControl interface {
	RequireAny(codes ...string) func(http.Handler) http.Handler
	RequireAll(codes ...string) func(http.Handler) http.Handler
}

// Handler manages role endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	access   AccessControl
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, access AccessControl) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		access:   access,
		validate: validator.New(),
	}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.access.RequireAny(rbac.PermRoleView, rbac.PermRoleManage))
		r.Get("/roles", h.list)
		r.Get("/roles/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.access.RequireAll(rbac.PermRoleManage))
		r.Post("/roles", h.create)
		r.Patch("/roles/{id}", h.update)
		r.Delete("/roles/{id}", h.delete)
		r.Put("/roles/{id}/permissions", h.replacePermissions)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

type createRoleRequest struct {
	Code        string `json:"code" validate:"required,min=2,max=64"`
	Name        string `json:"name" validate:"required,min=2,max=128"`
	Description string `json:"description" validate:"max=512"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	principal, _ := shared.PrincipalFromContext(r.Context())
	role, err := h.service.Create(r.Context(), principal, CreateRoleInput{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

type updateRoleRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=128"`
	Description *string `json:"description" validate:"omitempty,max=512"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	principal, _ := shared.PrincipalFromContext(r.Context())
	role, err := h.service.Update(r.Context(), principal, id, UpdateRoleInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	principal, _ := shared.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type replacePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required,dive,min=3"`
}

func (h *Handler) replacePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	var req replacePermissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	principal, _ := shared.PrincipalFromContext(r.Context())
	detail, err := h.service.ReplacePermissions(r.Context(), principal, id, req.Permissions)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) roleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "role id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if !shared.IsDomainError(err) {
		h.logger.Error("role request failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
