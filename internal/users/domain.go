package users

import (
	"time"

	"github.com/google/uuid"
)

// User is the admin-facing view of a platform account.
type User struct {
	ID            uuid.UUID `json:"id"`
	Phone         string    `json:"phone"`
	Status        string    `json:"status"`
	PhoneVerified bool      `json:"phone_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// AssignedRole is one role held by a user, in assignment order.
type AssignedRole struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	IsSystem   bool      `json:"is_system"`
	AssignedAt time.Time `json:"assigned_at"`
}

// UserDetail is a user with role assignments and the effective permission
// union across those roles.
type UserDetail struct {
	User
	Roles       []AssignedRole `json:"roles"`
	Permissions []string       `json:"permissions"`
}

// ListFilter narrows the user listing.
type ListFilter struct {
	Status string
	Phone  string
	Limit  int
	Offset int
}
