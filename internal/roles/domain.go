package roles

import "time"

// Role is an access-control role. System roles carry fixed codes and cannot
// be renamed or deleted.
type Role struct {
	ID          int64      `json:"id"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	IsSystem    bool       `json:"is_system"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"`
}

// Permission is one catalog entry as persisted.
type Permission struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Module      string `json:"module"`
	Description string `json:"description"`
}

// RoleDetail is a role together with its granted permissions.
type RoleDetail struct {
	Role
	Permissions []Permission `json:"permissions"`
}

// CreateRoleInput carries the fields accepted when creating a role.
type CreateRoleInput struct {
	Code        string
	Name        string
	Description string
}

// UpdateRoleInput carries the editable fields. The code is immutable.
type UpdateRoleInput struct {
	Name        *string
	Description *string
}
