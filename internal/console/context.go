package console

import "context"

type contextKey struct{}

// ContextWithSession installs the resolved session into the context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// SessionFromContext retrieves the session installed by the middleware.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(*Session)
	return sess, ok
}
