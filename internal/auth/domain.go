package auth

import (
	"time"

	"github.com/google/uuid"
)

// Account statuses.
const (
	StatusPending   = "PENDING"
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
)

// User represents a platform account.
type User struct {
	ID            uuid.UUID
	Phone         string
	PasswordHash  string
	Status        string
	PhoneVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CustomerInfo is the customer-specific slice of a current-user record.
type CustomerInfo struct {
	KYCStatus string `json:"kyc_status"`
}

// CollaboratorInfo is the collaborator-specific slice.
type CollaboratorInfo struct {
	ReferralCode string     `json:"referral_code"`
	ActivatedAt  *time.Time `json:"activated_at,omitempty"`
}

// CurrentUser is the wire contract consumed by the console: the canonical
// record with role codes in assignment order and the flattened permission
// union. The flattening happens here, server side, never on the client.
type CurrentUser struct {
	ID            string            `json:"id"`
	Phone         string            `json:"phone"`
	Status        string            `json:"status"`
	PhoneVerified bool              `json:"phone_verified"`
	CreatedAt     time.Time         `json:"created_at"`
	Roles         []string          `json:"roles"`
	Permissions   []string          `json:"permissions"`
	Customer      *CustomerInfo     `json:"customer,omitempty"`
	Collaborator  *CollaboratorInfo `json:"collaborator,omitempty"`
}

// TokenBundle is the response to login, registration completion and refresh.
type TokenBundle struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         CurrentUser `json:"user"`
}
