package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCode(t *testing.T) {
	cases := []struct {
		raw      string
		domain   string
		resource string
		action   string
	}{
		{"kyc.document.view", "kyc", "document", "view"},
		{"service.view", "service", "", "view"},
		{"service.application.stage.update", "service", "application.stage", "update"},
		{"system.permission.manage", "system", "permission", "manage"},
		{"auth.user.verify_otp", "auth", "user", "verify_otp"},
	}
	for _, tc := range cases {
		code, err := ParseCode(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.domain, code.Domain)
		assert.Equal(t, tc.resource, code.Resource)
		assert.Equal(t, tc.action, code.Action)
		assert.Equal(t, tc.raw, code.String())
		assert.Equal(t, tc.domain, code.Module())
	}
}

func TestParseCodeRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"view",
		"kyc..view",
		"KYC.document.view",
		"loans.document.view",
		"kyc.document.explode",
		"kyc.document .view",
	} {
		_, err := ParseCode(raw)
		assert.Error(t, err, raw)
		assert.False(t, ValidCode(raw), raw)
	}
}

func TestCatalogCodesAreWellFormed(t *testing.T) {
	seen := make(map[string]struct{})
	for _, def := range Catalog() {
		require.True(t, ValidCode(def.Code), def.Code)
		assert.Equal(t, def.Module, ModuleOf(def.Code), def.Code)
		_, dup := seen[def.Code]
		require.False(t, dup, "duplicate catalog code %s", def.Code)
		seen[def.Code] = struct{}{}
	}
}

func TestGroupedCatalogCoversEveryEntry(t *testing.T) {
	grouped := GroupedCatalog()
	total := 0
	for module, defs := range grouped {
		for _, def := range defs {
			assert.Equal(t, module, def.Module)
		}
		total += len(defs)
	}
	assert.Equal(t, len(Catalog()), total)
}

func TestDefaultGrantsReferenceCatalogOnly(t *testing.T) {
	known := make(map[string]struct{})
	for _, def := range Catalog() {
		known[def.Code] = struct{}{}
	}
	for role, codes := range DefaultGrants() {
		require.True(t, IsSystemRole(role), role)
		for _, code := range codes {
			_, ok := known[code]
			assert.True(t, ok, "%s grants unknown code %s", role, code)
		}
	}
}
