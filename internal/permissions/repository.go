package permissions

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-fin/meridian/internal/roles"
)

// Repository defines persistence for the permission catalog.
type Repository interface {
	List(ctx context.Context) ([]roles.Permission, error)
	ExistingCodes(ctx context.Context) (map[string]struct{}, error)
	Insert(ctx context.Context, code, module, description string) error
	GrantToRole(ctx context.Context, roleCode, permCode string) error
	EnsureRole(ctx context.Context, code, name string, isSystem bool) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns all catalog entries in insertion order.
func (r *PGRepository) List(ctx context.Context) ([]roles.Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, code, module, description FROM permissions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []roles.Permission
	for rows.Next() {
		var p roles.Permission
		if err := rows.Scan(&p.ID, &p.Code, &p.Module, &p.Description); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ExistingCodes returns the set of codes already persisted.
func (r *PGRepository) ExistingCodes(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx, `SELECT code FROM permissions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		set[code] = struct{}{}
	}
	return set, rows.Err()
}

// Insert adds one catalog entry, ignoring duplicates.
func (r *PGRepository) Insert(ctx context.Context, code, module, description string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO permissions (code, module, description)
		 VALUES ($1, $2, $3) ON CONFLICT (code) DO NOTHING`,
		code, module, description)
	return err
}

// GrantToRole links a permission to a role by code, ignoring duplicates.
func (r *PGRepository) GrantToRole(ctx context.Context, roleCode, permCode string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO role_permissions (role_id, permission_id)
		 SELECT r.id, p.id FROM roles r, permissions p
		 WHERE r.code = $1 AND p.code = $2 AND r.deleted_at IS NULL
		 ON CONFLICT DO NOTHING`,
		roleCode, permCode)
	return err
}

// EnsureRole inserts a role if its code is absent.
func (r *PGRepository) EnsureRole(ctx context.Context, code, name string, isSystem bool) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO roles (code, name, description, is_system, created_at, updated_at)
		 VALUES ($1, $2, '', $3, NOW(), NOW())
		 ON CONFLICT (code) DO NOTHING`,
		code, name, isSystem)
	return err
}

var _ Repository = (*PGRepository)(nil)
