package permissions

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-fin/meridian/internal/rbac"
	"github.com/meridian-fin/meridian/internal/roles"
)

type memRepo struct {
	perms  []roles.Permission
	roles  map[string]bool
	grants map[string]map[string]struct{}
}

func newMemRepo() *memRepo {
	return &memRepo{
		roles:  map[string]bool{},
		grants: map[string]map[string]struct{}{},
	}
}

func (r *memRepo) List(ctx context.Context) ([]roles.Permission, error) {
	return append([]roles.Permission(nil), r.perms...), nil
}

func (r *memRepo) ExistingCodes(ctx context.Context) (map[string]struct{}, error) {
	set := map[string]struct{}{}
	for _, p := range r.perms {
		set[p.Code] = struct{}{}
	}
	return set, nil
}

func (r *memRepo) Insert(ctx context.Context, code, module, description string) error {
	r.perms = append(r.perms, roles.Permission{
		ID: int64(len(r.perms) + 1), Code: code, Module: module, Description: description,
	})
	return nil
}

func (r *memRepo) GrantToRole(ctx context.Context, roleCode, permCode string) error {
	if r.grants[roleCode] == nil {
		r.grants[roleCode] = map[string]struct{}{}
	}
	r.grants[roleCode][permCode] = struct{}{}
	return nil
}

func (r *memRepo) EnsureRole(ctx context.Context, code, name string, isSystem bool) error {
	r.roles[code] = true
	return nil
}

func TestSeedFillsEmptyDatabase(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, slog.Default())

	report, err := svc.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(rbac.Catalog()), report.PermissionsAdded)
	assert.Equal(t, len(rbac.SystemRoles()), report.RolesEnsured)

	for _, code := range rbac.SystemRoles() {
		assert.True(t, repo.roles[code], code)
	}
	assert.Len(t, repo.grants[rbac.RoleAdmin], len(rbac.Catalog()))
}

func TestSeedIsIdempotent(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, slog.Default())
	ctx := context.Background()

	_, err := svc.Seed(ctx)
	require.NoError(t, err)

	report, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.PermissionsAdded)
	assert.Len(t, repo.perms, len(rbac.Catalog()))
}

func TestSeedFillsGapsOnly(t *testing.T) {
	repo := newMemRepo()
	require.NoError(t, repo.Insert(context.Background(), rbac.PermKYCView, "kyc", "View own KYC documents"))
	svc := NewService(repo, slog.Default())

	report, err := svc.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(rbac.Catalog())-1, report.PermissionsAdded)
}

func TestGrouped(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, slog.Default())
	_, err := svc.Seed(context.Background())
	require.NoError(t, err)

	grouped, err := svc.Grouped(context.Background())
	require.NoError(t, err)
	assert.Contains(t, grouped, "kyc")
	assert.Contains(t, grouped, "system")
	total := 0
	for _, bucket := range grouped {
		total += len(bucket)
	}
	assert.Equal(t, len(rbac.Catalog()), total)
}
