package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-fin/meridian/internal/platform/httpx"
	"github.com/meridian-fin/meridian/internal/rbac"
	"github.com/meridian-fin/meridian/internal/roles"
	"github.com/meridian-fin/meridian/internal/shared"
)

// Handler manages user administration endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	access   roles.AccessControl
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, access roles.AccessControl) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		access:   access,
		validate: validator.New(),
	}
}

// MountRoutes registers user administration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.access.RequireAny(rbac.PermUserView, rbac.PermUserManage))
		r.Get("/users", h.list)
		r.Get("/users/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.access.RequireAll(rbac.PermRoleAssign))
		r.Post("/users/{id}/roles", h.assignRole)
		r.Delete("/users/{id}/roles/{roleID}", h.revokeRole)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	out, err := h.service.List(r.Context(), ListFilter{
		Status: q.Get("status"),
		Phone:  q.Get("phone"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
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

type assignRoleRequest struct {
	RoleID int64 `json:"roleId" validate:"required,gt=0"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	principal, _ := shared.PrincipalFromContext(r.Context())
	detail, err := h.service.AssignRole(r.Context(), principal, id, req.RoleID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) revokeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	roleID, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "role id must be an integer")
		return
	}
	principal, _ := shared.PrincipalFromContext(r.Context())
	detail, err := h.service.RevokeRole(r.Context(), principal, id, roleID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "user id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if !shared.IsDomainError(err) {
		h.logger.Error("user request failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
