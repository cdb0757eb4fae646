package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierAtLeast(t *testing.T) {
	assert.True(t, TierAtLeast([]string{RoleAdmin}, RoleSupporter))
	assert.True(t, TierAtLeast([]string{RoleManager}, RoleManager))
	assert.True(t, TierAtLeast([]string{RoleCustomer, RoleManager}, RoleSupporter))
	assert.False(t, TierAtLeast([]string{RoleSupporter}, RoleManager))
	assert.False(t, TierAtLeast([]string{RoleUser}, RoleCustomer))
	assert.False(t, TierAtLeast(nil, RoleUser))
}

func TestTierAtLeastIgnoresCustomRoles(t *testing.T) {
	assert.False(t, TierAtLeast([]string{"AUDITOR"}, RoleUser))
	assert.False(t, TierAtLeast([]string{RoleAdmin}, "AUDITOR"))
}

func TestIsSystemRole(t *testing.T) {
	for _, code := range SystemRoles() {
		assert.True(t, IsSystemRole(code), code)
	}
	assert.False(t, IsSystemRole("AUDITOR"))
	assert.False(t, IsSystemRole("admin"))
}
