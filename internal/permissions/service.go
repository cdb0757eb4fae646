// Package permissions serves the curated permission catalog and seeds it
// together with the system roles and their default grants.
package permissions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/meridian-fin/meridian/internal/rbac"
	"github.com/meridian-fin/meridian/internal/roles"
)

// SeedReport summarises one seeding run.
type SeedReport struct {
	PermissionsAdded int `json:"permissions_added"`
	RolesEnsured     int `json:"roles_ensured"`
	GrantsEnsured    int `json:"grants_ensured"`
}

// Service exposes catalog reads and the idempotent seeder.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService builds the permissions service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns every persisted catalog entry.
func (s *Service) List(ctx context.Context) ([]roles.Permission, error) {
	return s.repo.List(ctx)
}

// Grouped buckets persisted entries by module.
func (s *Service) Grouped(ctx context.Context) (map[string][]roles.Permission, error) {
	perms, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]roles.Permission)
	for _, p := range perms {
		grouped[p.Module] = append(grouped[p.Module], p)
	}
	return grouped, nil
}

// Seed fills gaps between the curated catalog and the database. It inserts
// missing permissions, ensures the system roles exist and applies the
// default grants. It never revokes anything, so rerunning is safe.
func (s *Service) Seed(ctx context.Context) (*SeedReport, error) {
	report := &SeedReport{}

	existing, err := s.repo.ExistingCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading existing codes: %w", err)
	}
	for _, def := range rbac.Catalog() {
		if _, ok := existing[def.Code]; ok {
			continue
		}
		if err := s.repo.Insert(ctx, def.Code, def.Module, def.Description); err != nil {
			return nil, fmt.Errorf("inserting %s: %w", def.Code, err)
		}
		report.PermissionsAdded++
	}

	for _, code := range rbac.SystemRoles() {
		if err := s.repo.EnsureRole(ctx, code, roleDisplayName(code), true); err != nil {
			return nil, fmt.Errorf("ensuring role %s: %w", code, err)
		}
		report.RolesEnsured++
	}

	for roleCode, permCodes := range rbac.DefaultGrants() {
		for _, permCode := range permCodes {
			if err := s.repo.GrantToRole(ctx, roleCode, permCode); err != nil {
				return nil, fmt.Errorf("granting %s to %s: %w", permCode, roleCode, err)
			}
			report.GrantsEnsured++
		}
	}

	s.logger.Info("permission catalog seeded",
		slog.Int("permissions_added", report.PermissionsAdded),
		slog.Int("roles_ensured", report.RolesEnsured))
	return report, nil
}

func roleDisplayName(code string) string {
	switch code {
	case rbac.RoleCollaborator:
		return "Collaborator"
	default:
		lower := strings.ToLower(code)
		return strings.ToUpper(lower[:1]) + lower[1:]
	}
}
