package roles

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/meridian-fin/meridian/internal/rbac"
	"github.com/meridian-fin/meridian/internal/shared"
)

// Auditor records RBAC mutations.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements role management. System roles keep their codes and
// existence; only their grants and cosmetic fields can change.
type Service struct {
	repo   Repository
	audit  Auditor
	logger *slog.Logger
}

// NewService builds the roles service.
func NewService(repo Repository, audit Auditor, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// List returns all live roles.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// Get returns one role with its granted permissions.
func (s *Service) Get(ctx context.Context, id int64) (*RoleDetail, error) {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	perms, err := s.repo.PermissionsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RoleDetail{Role: *role, Permissions: perms}, nil
}

// Create adds a custom role. The code must be uppercase with underscores and
// must not collide with a system role.
func (s *Service) Create(ctx context.Context, actor shared.Principal, input CreateRoleInput) (*Role, error) {
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	if !validRoleCode(input.Code) {
		return nil, fmt.Errorf("%w: role code must be uppercase letters and underscores", shared.ErrValidation)
	}
	if rbac.IsSystemRole(input.Code) {
		return nil, shared.ErrSystemRole
	}
	role, err := s.repo.Create(ctx, input, false)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "role.create", role.ID, map[string]any{"code": role.Code})
	return role, nil
}

// Update changes name and description. The code is immutable for every role
// and system roles additionally keep their name semantics on the caller.
func (s *Service) Update(ctx context.Context, actor shared.Principal, id int64, input UpdateRoleInput) (*Role, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	role, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "role.update", role.ID, map[string]any{"code": role.Code})
	return role, nil
}

// Delete soft-deletes a custom role. System roles are refused.
func (s *Service) Delete(ctx context.Context, actor shared.Principal, id int64) error {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return shared.ErrSystemRole
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "role.delete", id, map[string]any{"code": role.Code})
	return nil
}

// ReplacePermissions swaps the full grant set of a role. Unknown codes fail
// the whole call; nothing is applied partially.
func (s *Service) ReplacePermissions(ctx context.Context, actor shared.Principal, id int64, codes []string) (*RoleDetail, error) {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, code := range codes {
		if !rbac.ValidCode(code) {
			return nil, fmt.Errorf("%w: malformed permission code %q", shared.ErrValidation, code)
		}
	}
	ids, err := s.repo.PermissionIDsByCode(ctx, codes)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplacePermissions(ctx, id, ids); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "role.permissions.replace", id, map[string]any{
		"code":  role.Code,
		"count": len(codes),
	})
	return s.Get(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Principal, action string, roleID int64, meta map[string]any) {
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "role",
		EntityID: strconv.FormatInt(roleID, 10),
		Meta:     meta,
		At:       time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

func validRoleCode(code string) bool {
	if code == "" {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && r != '_' {
			return false
		}
	}
	return true
}
