// Package authz holds the single authorization decision function shared by
// every gating call site. Menu filtering, conditional rendering and route
// guarding all go through Decide so they can never disagree.
package authz

// SessionQueries is the read surface of the session store the gate needs.
type SessionQueries interface {
	IsAuthenticated() bool
	HasRole(role string) bool
	HasAnyRole(roles []string) bool
	HasAllRoles(roles []string) bool
	HasPermission(code string) bool
	HasAnyPermission(codes []string) bool
	HasAllPermissions(codes []string) bool
}

// Requirement is a conjunction of role and permission constraints. An absent
// or empty field imposes no constraint.
type Requirement struct {
	AnyPermissions []string `json:"anyPermissions,omitempty"`
	AllPermissions []string `json:"allPermissions,omitempty"`
	AnyRoles       []string `json:"anyRoles,omitempty"`
	AllRoles       []string `json:"allRoles,omitempty"`
}

// Empty reports whether the requirement imposes no constraint at all.
func (r Requirement) Empty() bool {
	return len(r.AnyPermissions) == 0 && len(r.AllPermissions) == 0 &&
		len(r.AnyRoles) == 0 && len(r.AllRoles) == 0
}

// Decide evaluates the requirement against the session. Every present field
// is ANDed in. An unauthenticated session satisfies only the empty
// requirement; there is no open-ended allow while signed out.
func Decide(s SessionQueries, req Requirement) bool {
	if req.Empty() {
		return true
	}
	if !s.IsAuthenticated() {
		return false
	}
	allow := true
	if len(req.AnyPermissions) > 0 {
		allow = allow && s.HasAnyPermission(req.AnyPermissions)
	}
	if len(req.AllPermissions) > 0 {
		allow = allow && s.HasAllPermissions(req.AllPermissions)
	}
	if len(req.AnyRoles) > 0 {
		allow = allow && s.HasAnyRole(req.AnyRoles)
	}
	if len(req.AllRoles) > 0 {
		allow = allow && s.HasAllRoles(req.AllRoles)
	}
	return allow
}

// Decision is the route-guard outcome. Checking is the transient initial
// state while the session is not yet confirmed; the other three are terminal
// for a given session generation. Re-evaluation happens only on session
// change or navigation, never on a timer.
type Decision int

const (
	Checking Decision = iota
	Authorized
	RedirectLogin
	RedirectForbidden
)

// String names the decision for logs.
func (d Decision) String() string {
	switch d {
	case Checking:
		return "checking"
	case Authorized:
		return "authorized"
	case RedirectLogin:
		return "redirect_login"
	case RedirectForbidden:
		return "redirect_forbidden"
	default:
		return "unknown"
	}
}

// Evaluate runs the route-guard state machine for one navigation. A missing
// session resolves to RedirectLogin; an authenticated session that fails the
// requirement resolves to RedirectForbidden.
func Evaluate(s SessionQueries, req Requirement) Decision {
	if s == nil || !s.IsAuthenticated() {
		return RedirectLogin
	}
	if !Decide(s, req) {
		return RedirectForbidden
	}
	return Authorized
}
