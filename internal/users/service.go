// Package users handles user administration: listing accounts, inspecting
// their access and managing role assignments. It is also the grant source
// for the auth module.
package users

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-fin/meridian/internal/shared"
)

// Auditor records role assignment changes.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements user administration.
type Service struct {
	repo   Repository
	audit  Auditor
	logger *slog.Logger
}

// NewService builds the users service.
func NewService(repo Repository, audit Auditor, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// List pages through users.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]User, error) {
	return s.repo.List(ctx, filter)
}

// Get returns one user with roles and effective permissions.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*UserDetail, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	assigned, err := s.repo.RolesOf(ctx, id)
	if err != nil {
		return nil, err
	}
	perms, err := s.repo.EffectivePermissions(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UserDetail{User: *user, Roles: assigned, Permissions: perms}, nil
}

// AssignRole adds a role to a user. Assigning an already held role is a
// no-op, not an error.
func (s *Service) AssignRole(ctx context.Context, actor shared.Principal, userID uuid.UUID, roleID int64) (*UserDetail, error) {
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "user.role.assign", userID, roleID)
	return s.Get(ctx, userID)
}

// RevokeRole removes a role from a user.
func (s *Service) RevokeRole(ctx context.Context, actor shared.Principal, userID uuid.UUID, roleID int64) (*UserDetail, error) {
	if err := s.repo.RevokeRole(ctx, userID, roleID); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "user.role.revoke", userID, roleID)
	return s.Get(ctx, userID)
}

// RoleCodes implements the auth grant source.
func (s *Service) RoleCodes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.repo.RoleCodes(ctx, userID)
}

// EffectivePermissions implements the auth grant source.
func (s *Service) EffectivePermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.repo.EffectivePermissions(ctx, userID)
}

// AssignSystemRole grants a system role by code during account activation.
func (s *Service) AssignSystemRole(ctx context.Context, userID uuid.UUID, roleCode string) error {
	roleID, err := s.repo.RoleIDByCode(ctx, roleCode)
	if err != nil {
		return err
	}
	return s.repo.AssignRole(ctx, userID, roleID)
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Principal, action string, userID uuid.UUID, roleID int64) {
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "user",
		EntityID: userID.String(),
		Meta:     map[string]any{"role_id": roleID},
		At:       time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
