package users

import (
	"context"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-fin/meridian/internal/rbac"
	"github.com/meridian-fin/meridian/internal/shared"
)

type memRepo struct {
	users       map[uuid.UUID]*User
	roleIDs     map[string]int64
	roleCodes   map[int64]string
	roleGrants  map[int64][]string
	assignments map[uuid.UUID][]int64
}

func newMemRepo() *memRepo {
	r := &memRepo{
		users:       map[uuid.UUID]*User{},
		roleIDs:     map[string]int64{},
		roleCodes:   map[int64]string{},
		roleGrants:  map[int64][]string{},
		assignments: map[uuid.UUID][]int64{},
	}
	next := int64(1)
	for _, code := range rbac.SystemRoles() {
		r.roleIDs[code] = next
		r.roleCodes[next] = code
		r.roleGrants[next] = rbac.DefaultGrants()[code]
		next++
	}
	return r
}

func (r *memRepo) seedUser(phone string) *User {
	u := &User{ID: uuid.New(), Phone: phone, Status: "ACTIVE", PhoneVerified: true, CreatedAt: time.Now()}
	r.users[u.ID] = u
	return u
}

func (r *memRepo) List(ctx context.Context, filter ListFilter) ([]User, error) {
	var out []User
	for _, u := range r.users {
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (r *memRepo) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) RolesOf(ctx context.Context, userID uuid.UUID) ([]AssignedRole, error) {
	var out []AssignedRole
	for _, rid := range r.assignments[userID] {
		out = append(out, AssignedRole{ID: rid, Code: r.roleCodes[rid], IsSystem: true})
	}
	return out, nil
}

func (r *memRepo) RoleCodes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var out []string
	for _, rid := range r.assignments[userID] {
		out = append(out, r.roleCodes[rid])
	}
	return out, nil
}

func (r *memRepo) EffectivePermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	seen := map[string]struct{}{}
	for _, rid := range r.assignments[userID] {
		for _, p := range r.roleGrants[rid] {
			seen[p] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func (r *memRepo) AssignRole(ctx context.Context, userID uuid.UUID, roleID int64) error {
	for _, rid := range r.assignments[userID] {
		if rid == roleID {
			return nil
		}
	}
	r.assignments[userID] = append(r.assignments[userID], roleID)
	return nil
}

func (r *memRepo) RevokeRole(ctx context.Context, userID uuid.UUID, roleID int64) error {
	list := r.assignments[userID]
	for i, rid := range list {
		if rid == roleID {
			r.assignments[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r *memRepo) RoleIDByCode(ctx context.Context, code string) (int64, error) {
	id, ok := r.roleIDs[code]
	if !ok {
		return 0, shared.ErrNotFound
	}
	return id, nil
}

type nopAuditor struct {
	records []shared.AuditLog
}

func (a *nopAuditor) Record(ctx context.Context, log shared.AuditLog) error {
	a.records = append(a.records, log)
	return nil
}

func newTestService() (*Service, *memRepo, *nopAuditor) {
	repo := newMemRepo()
	audit := &nopAuditor{}
	return NewService(repo, audit, slog.Default()), repo, audit
}

func TestAssignRoleExpandsPermissions(t *testing.T) {
	svc, repo, audit := newTestService()
	user := repo.seedUser("+84901234567")
	ctx := context.Background()

	detail, err := svc.AssignRole(ctx, shared.Principal{}, user.ID, repo.roleIDs[rbac.RoleCustomer])
	require.NoError(t, err)
	assert.Len(t, detail.Roles, 1)
	assert.Contains(t, detail.Permissions, rbac.PermKYCUpload)
	assert.NotContains(t, detail.Permissions, rbac.PermKYCApprove)

	detail, err = svc.AssignRole(ctx, shared.Principal{}, user.ID, repo.roleIDs[rbac.RoleManager])
	require.NoError(t, err)
	assert.Len(t, detail.Roles, 2)
	assert.Contains(t, detail.Permissions, rbac.PermKYCApprove)
	require.Len(t, audit.records, 2)
	assert.Equal(t, "user.role.assign", audit.records[0].Action)
}

func TestAssignRoleIdempotent(t *testing.T) {
	svc, repo, _ := newTestService()
	user := repo.seedUser("+84901234567")
	ctx := context.Background()

	_, err := svc.AssignRole(ctx, shared.Principal{}, user.ID, repo.roleIDs[rbac.RoleCustomer])
	require.NoError(t, err)
	detail, err := svc.AssignRole(ctx, shared.Principal{}, user.ID, repo.roleIDs[rbac.RoleCustomer])
	require.NoError(t, err)
	assert.Len(t, detail.Roles, 1)
}

func TestRevokeRoleShrinksPermissions(t *testing.T) {
	svc, repo, _ := newTestService()
	user := repo.seedUser("+84901234567")
	ctx := context.Background()

	_, err := svc.AssignRole(ctx, shared.Principal{}, user.ID, repo.roleIDs[rbac.RoleCustomer])
	require.NoError(t, err)
	_, err = svc.AssignRole(ctx, shared.Principal{}, user.ID, repo.roleIDs[rbac.RoleManager])
	require.NoError(t, err)

	detail, err := svc.RevokeRole(ctx, shared.Principal{}, user.ID, repo.roleIDs[rbac.RoleManager])
	require.NoError(t, err)
	assert.Len(t, detail.Roles, 1)
	assert.NotContains(t, detail.Permissions, rbac.PermKYCApprove)
	assert.Contains(t, detail.Permissions, rbac.PermKYCUpload)
}

func TestRevokeUnassignedRole(t *testing.T) {
	svc, repo, _ := newTestService()
	user := repo.seedUser("+84901234567")

	_, err := svc.RevokeRole(context.Background(), shared.Principal{}, user.ID, repo.roleIDs[rbac.RoleAdmin])
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestEffectivePermissionsAreDeduplicated(t *testing.T) {
	svc, repo, _ := newTestService()
	user := repo.seedUser("+84901234567")
	ctx := context.Background()

	// USER and CUSTOMER overlap on profile permissions.
	require.NoError(t, svc.AssignSystemRole(ctx, user.ID, rbac.RoleUser))
	require.NoError(t, svc.AssignSystemRole(ctx, user.ID, rbac.RoleCustomer))

	perms, err := svc.EffectivePermissions(ctx, user.ID)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, p := range perms {
		counts[p]++
	}
	assert.Equal(t, 1, counts[rbac.PermProfileView])
}

func TestAssignSystemRoleUnknownCode(t *testing.T) {
	svc, repo, _ := newTestService()
	user := repo.seedUser("+84901234567")

	err := svc.AssignSystemRole(context.Background(), user.ID, "NOT_A_ROLE")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetUnknownUser(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
