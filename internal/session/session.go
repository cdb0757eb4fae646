// Package session owns the console's authenticated context: the signed-in
// user, the bearer credentials and the role/permission sets every
// authorization decision reads from. The store is the single source of truth;
// gates and facades query it and never hold copies.
package session

import "time"

// CustomerProfile carries the customer-specific slice of the current user.
type CustomerProfile struct {
	KYCStatus string `json:"kyc_status"`
}

// CollaboratorProfile carries the collaborator-specific slice.
type CollaboratorProfile struct {
	ReferralCode string     `json:"referral_code"`
	ActivatedAt  *time.Time `json:"activated_at,omitempty"`
}

// User mirrors the platform's current-user contract. Roles keeps assignment
// order; the first entry is the primary role for display. Permissions is the
// server-flattened union of every assigned role's grants. The console never
// recomputes that union itself.
type User struct {
	ID            string               `json:"id"`
	Phone         string               `json:"phone"`
	Status        string               `json:"status"`
	PhoneVerified bool                 `json:"phone_verified"`
	CreatedAt     time.Time            `json:"created_at"`
	Roles         []string             `json:"roles"`
	Permissions   []string             `json:"permissions"`
	Customer      *CustomerProfile     `json:"customer,omitempty"`
	Collaborator  *CollaboratorProfile `json:"collaborator,omitempty"`
}

// clone returns a deep copy so callers cannot mutate store-owned state.
func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Roles = append([]string(nil), u.Roles...)
	cp.Permissions = append([]string(nil), u.Permissions...)
	if u.Customer != nil {
		c := *u.Customer
		cp.Customer = &c
	}
	if u.Collaborator != nil {
		c := *u.Collaborator
		if u.Collaborator.ActivatedAt != nil {
			at := *u.Collaborator.ActivatedAt
			c.ActivatedAt = &at
		}
		cp.Collaborator = &c
	}
	return &cp
}

// UserPatch shallow-merges profile fields into the current user. Role and
// permission sets are deliberately absent: those change only through a full
// replace so the flattened permission union can never drift from the roles.
type UserPatch struct {
	Phone         *string
	Status        *string
	PhoneVerified *bool
	Customer      *CustomerProfile
	Collaborator  *CollaboratorProfile
}

// Snapshot is a read-only copy of the live session handed to facades.
type Snapshot struct {
	User            *User
	AccessToken     string
	RefreshToken    string
	IsAuthenticated bool
	Epoch           uint64
}

// Roles returns the role codes, empty when signed out.
func (s Snapshot) Roles() []string {
	if s.User == nil {
		return nil
	}
	return s.User.Roles
}

// Permissions returns the flattened permission codes, empty when signed out.
func (s Snapshot) Permissions() []string {
	if s.User == nil {
		return nil
	}
	return s.User.Permissions
}
