// Package rbac defines the permission grammar, the curated permission
// catalog and the system role hierarchy shared by the platform API and the
// console core. It is pure data and validation; it holds no state.
package rbac

import (
	"fmt"
	"strings"
)

// Code is a parsed permission code of the form domain.resource.action.
// The resource part may span several segments (service.application.stage.update)
// or be empty entirely (service.view).
type Code struct {
	Domain   string
	Resource string
	Action   string
}

// String reassembles the canonical code.
func (c Code) String() string {
	if c.Resource == "" {
		return c.Domain + "." + c.Action
	}
	return c.Domain + "." + c.Resource + "." + c.Action
}

// Module returns the grouping key for catalog listings. It equals the domain.
func (c Code) Module() string {
	return c.Domain
}

var domains = map[string]struct{}{
	"auth":     {},
	"user":     {},
	"kyc":      {},
	"service":  {},
	"finance":  {},
	"referral": {},
	"system":   {},
}

var actions = map[string]struct{}{
	"view":          {},
	"view_all":      {},
	"create":        {},
	"create_as_ctv": {},
	"update":        {},
	"delete":        {},
	"manage":        {},
	"approve":       {},
	"reject":        {},
	"review":        {},
	"upload":        {},
	"assign":        {},
	"register":      {},
	"verify_otp":    {},
	"login":         {},
	"snapshot":      {},
}

// ParseCode validates raw against the permission grammar.
func ParseCode(raw string) (Code, error) {
	parts := strings.Split(raw, ".")
	if len(parts) < 2 {
		return Code{}, fmt.Errorf("rbac: code %q needs at least domain and action", raw)
	}
	for _, p := range parts {
		if p == "" || p != strings.ToLower(p) || strings.ContainsAny(p, " \t") {
			return Code{}, fmt.Errorf("rbac: code %q has malformed segment %q", raw, p)
		}
	}
	code := Code{
		Domain:   parts[0],
		Resource: strings.Join(parts[1:len(parts)-1], "."),
		Action:   parts[len(parts)-1],
	}
	if _, ok := domains[code.Domain]; !ok {
		return Code{}, fmt.Errorf("rbac: unknown domain %q in %q", code.Domain, raw)
	}
	if _, ok := actions[code.Action]; !ok {
		return Code{}, fmt.Errorf("rbac: unknown action %q in %q", code.Action, raw)
	}
	return code, nil
}

// ValidCode reports whether raw is a well formed permission code.
func ValidCode(raw string) bool {
	_, err := ParseCode(raw)
	return err == nil
}

// ModuleOf returns the grouping module for a raw code, or "" when malformed.
func ModuleOf(raw string) string {
	code, err := ParseCode(raw)
	if err != nil {
		return ""
	}
	return code.Module()
}
