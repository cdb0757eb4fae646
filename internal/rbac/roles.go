package rbac

// System role codes. These roles ship with the platform, cannot be deleted
// and their codes are immutable.
const (
	RoleUser         = "USER"
	RoleCustomer     = "CUSTOMER"
	RoleCollaborator = "CTV"
	RoleSupporter    = "SUPPORTER"
	RoleManager      = "MANAGER"
	RoleAdmin        = "ADMIN"
)

// tierOrder ranks operational breadth. A higher tier implicitly covers the
// screens of every tier below it. Hierarchy changes happen here and nowhere
// else.
var tierOrder = map[string]int{
	RoleAdmin:        6,
	RoleManager:      5,
	RoleSupporter:    4,
	RoleCollaborator: 3,
	RoleCustomer:     2,
	RoleUser:         1,
}

// SystemRoles lists the fixed role codes from broadest to narrowest.
func SystemRoles() []string {
	return []string{RoleAdmin, RoleManager, RoleSupporter, RoleCollaborator, RoleCustomer, RoleUser}
}

// IsSystemRole reports whether code names a fixed system role.
// Matching is case sensitive: role codes are uppercase tokens.
func IsSystemRole(code string) bool {
	_, ok := tierOrder[code]
	return ok
}

// Tier returns the rank of a role code, 0 for custom roles.
func Tier(code string) int {
	return tierOrder[code]
}

// TierAtLeast reports whether any of the held role codes ranks at or above
// the given tier role. Custom roles carry no tier and never satisfy it.
func TierAtLeast(held []string, tier string) bool {
	want := tierOrder[tier]
	if want == 0 {
		return false
	}
	for _, code := range held {
		if tierOrder[code] >= want {
			return true
		}
	}
	return false
}
