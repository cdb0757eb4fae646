// Package nav prunes the console navigation tree down to the entries the
// current session may see. It goes through the same authorization gate as
// route guards and conditional rendering, so the menu can never show a
// destination the guard would refuse.
package nav

import (
	"github.com/meridian-fin/meridian/internal/authz"
)

// Item is one navigation entry. Require tags the entry with the roles or
// permissions a session needs before the entry is shown; an empty
// requirement keeps the entry visible to every authenticated session.
type Item struct {
	Label    string            `json:"label"`
	Path     string            `json:"path,omitempty"`
	Icon     string            `json:"icon,omitempty"`
	Require  authz.Requirement `json:"-"`
	Children []Item            `json:"children,omitempty"`
}

// Filter returns the pruned tree visible to the session. The walk is depth
// first and stable: sibling order is preserved, never re-sorted. A parent
// survives only with at least one surviving child or content of its own
// (a non-empty path), so a category never renders empty.
func Filter(items []Item, sess authz.SessionQueries) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if !authz.Decide(sess, item.Require) {
			continue
		}
		if len(item.Children) == 0 {
			out = append(out, item)
			continue
		}
		kept := item
		kept.Children = Filter(item.Children, sess)
		if len(kept.Children) == 0 && kept.Path == "" {
			continue
		}
		out = append(out, kept)
	}
	return out
}
