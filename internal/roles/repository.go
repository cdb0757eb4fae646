package roles

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-fin/meridian/internal/platform/db"
	"github.com/meridian-fin/meridian/internal/shared"
)

// Repository defines persistence for roles and their permission grants.
type Repository interface {
	List(ctx context.Context) ([]Role, error)
	FindByID(ctx context.Context, id int64) (*Role, error)
	FindByCode(ctx context.Context, code string) (*Role, error)
	Create(ctx context.Context, input CreateRoleInput, isSystem bool) (*Role, error)
	Update(ctx context.Context, id int64, input UpdateRoleInput) (*Role, error)
	SoftDelete(ctx context.Context, id int64) error
	PermissionsOf(ctx context.Context, roleID int64) ([]Permission, error)
	ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
	PermissionIDsByCode(ctx context.Context, codes []string) ([]int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const roleColumns = `id, code, name, description, is_system, created_at, updated_at, deleted_at`

// List returns all live roles ordered by id.
func (r *PGRepository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRoles(rows)
}

// FindByID fetches one live role.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*Role, error) {
	return scanRole(r.pool.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE id = $1 AND deleted_at IS NULL`, id))
}

// FindByCode fetches one live role by its code.
func (r *PGRepository) FindByCode(ctx context.Context, code string) (*Role, error) {
	return scanRole(r.pool.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE code = $1 AND deleted_at IS NULL`, code))
}

// Create inserts a role. A duplicate code maps to shared.ErrDuplicateCode.
func (r *PGRepository) Create(ctx context.Context, input CreateRoleInput, isSystem bool) (*Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx,
		`INSERT INTO roles (code, name, description, is_system, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW())
		 RETURNING `+roleColumns,
		input.Code, input.Name, input.Description, isSystem))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.ErrDuplicateCode
		}
		return nil, err
	}
	return role, nil
}

// Update changes name and description only.
func (r *PGRepository) Update(ctx context.Context, id int64, input UpdateRoleInput) (*Role, error) {
	return scanRole(r.pool.QueryRow(ctx,
		`UPDATE roles
		 SET name = COALESCE($2, name),
		     description = COALESCE($3, description),
		     updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL
		 RETURNING `+roleColumns,
		id, input.Name, input.Description))
}

// SoftDelete marks the role deleted and drops its grants and assignments.
func (r *PGRepository) SoftDelete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE roles SET deleted_at = NOW(), updated_at = NOW()
			 WHERE id = $1 AND deleted_at IS NULL`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM user_roles WHERE role_id = $1`, id)
		return err
	})
}

// PermissionsOf returns the grants of a role in catalog order.
func (r *PGRepository) PermissionsOf(ctx context.Context, roleID int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.code, p.module, p.description
		 FROM permissions p
		 JOIN role_permissions rp ON rp.permission_id = p.id
		 WHERE rp.role_id = $1
		 ORDER BY p.id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Code, &p.Module, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// ReplacePermissions swaps the full grant set of a role in one transaction.
func (r *PGRepository) ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		for _, pid := range permissionIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`,
				roleID, pid); err != nil {
				return err
			}
		}
		return nil
	})
}

// PermissionIDsByCode resolves codes to permission ids, failing when any
// code is unknown.
func (r *PGRepository) PermissionIDsByCode(ctx context.Context, codes []string) ([]int64, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM permissions WHERE code = ANY($1)`, codes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) != len(codes) {
		return nil, shared.ErrNotFound
	}
	return ids, nil
}

func scanRole(row pgx.Row) (*Role, error) {
	var role Role
	var deletedAt *time.Time
	err := row.Scan(&role.ID, &role.Code, &role.Name, &role.Description,
		&role.IsSystem, &role.CreatedAt, &role.UpdatedAt, &deletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	role.DeletedAt = deletedAt
	return &role, nil
}

func scanRoles(rows pgx.Rows) ([]Role, error) {
	var out []Role
	for rows.Next() {
		var role Role
		var deletedAt *time.Time
		if err := rows.Scan(&role.ID, &role.Code, &role.Name, &role.Description,
			&role.IsSystem, &role.CreatedAt, &role.UpdatedAt, &deletedAt); err != nil {
			return nil, err
		}
		role.DeletedAt = deletedAt
		out = append(out, role)
	}
	return out, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
