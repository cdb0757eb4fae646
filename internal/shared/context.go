package shared

import (
	"context"

	"github.com/google/uuid"
)

type principalContextKey struct{}

// Principal identifies the authenticated actor of a platform API request.
type Principal struct {
	UserID uuid.UUID
	Phone  string
}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal. The boolean is false when
// the request carried no validated bearer token.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
