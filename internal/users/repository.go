package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-fin/meridian/internal/shared"
)

// Repository defines persistence for user administration and role
// assignment.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	RolesOf(ctx context.Context, userID uuid.UUID) ([]AssignedRole, error)
	RoleCodes(ctx context.Context, userID uuid.UUID) ([]string, error)
	EffectivePermissions(ctx context.Context, userID uuid.UUID) ([]string, error)
	AssignRole(ctx context.Context, userID uuid.UUID, roleID int64) error
	RevokeRole(ctx context.Context, userID uuid.UUID, roleID int64) error
	RoleIDByCode(ctx context.Context, code string) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List pages through users, newest first.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]User, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, phone, status, phone_verified, created_at
		 FROM users
		 WHERE ($1 = '' OR status = $1)
		   AND ($2 = '' OR phone LIKE '%' || $2 || '%')
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		filter.Status, filter.Phone, limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Phone, &u.Status, &u.PhoneVerified, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// FindByID fetches one user.
func (r *PGRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx,
		`SELECT id, phone, status, phone_verified, created_at FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Phone, &u.Status, &u.PhoneVerified, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// RolesOf returns the role assignments of a user in assignment order.
func (r *PGRepository) RolesOf(ctx context.Context, userID uuid.UUID) ([]AssignedRole, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ro.id, ro.code, ro.name, ro.is_system, ur.assigned_at
		 FROM roles ro
		 JOIN user_roles ur ON ur.role_id = ro.id
		 WHERE ur.user_id = $1 AND ro.deleted_at IS NULL
		 ORDER BY ur.assigned_at, ro.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AssignedRole
	for rows.Next() {
		var ar AssignedRole
		if err := rows.Scan(&ar.ID, &ar.Code, &ar.Name, &ar.IsSystem, &ar.AssignedAt); err != nil {
			return nil, err
		}
		out = append(out, ar)
	}
	return out, rows.Err()
}

// RoleCodes returns just the codes, in assignment order.
func (r *PGRepository) RoleCodes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	assigned, err := r.RolesOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(assigned))
	for _, ar := range assigned {
		codes = append(codes, ar.Code)
	}
	return codes, nil
}

// EffectivePermissions returns the distinct permission union across every
// live role of the user. Flattening happens here, never on the console.
func (r *PGRepository) EffectivePermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT p.code
		 FROM permissions p
		 JOIN role_permissions rp ON rp.permission_id = p.id
		 JOIN user_roles ur ON ur.role_id = rp.role_id
		 JOIN roles ro ON ro.id = ur.role_id AND ro.deleted_at IS NULL
		 WHERE ur.user_id = $1
		 ORDER BY p.code`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// AssignRole links a role to a user, ignoring an existing assignment.
func (r *PGRepository) AssignRole(ctx context.Context, userID uuid.UUID, roleID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id, assigned_at)
		 VALUES ($1, $2, NOW()) ON CONFLICT DO NOTHING`,
		userID, roleID)
	return err
}

// RevokeRole removes an assignment. Missing assignments map to ErrNotFound.
func (r *PGRepository) RevokeRole(ctx context.Context, userID uuid.UUID, roleID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// RoleIDByCode resolves a live role code to its id.
func (r *PGRepository) RoleIDByCode(ctx context.Context, code string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM roles WHERE code = $1 AND deleted_at IS NULL`, code).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return id, nil
}

var _ Repository = (*PGRepository)(nil)
