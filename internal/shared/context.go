package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// RequireSession returns the request session or an AuthError when the caller
// is anonymous or the session was already invalidated.
func RequireSession(ctx context.Context) (*Session, error) {
	sess := SessionFromContext(ctx)
	if sess == nil || sess.Invalidated() {
		return nil, Auth("sign in required")
	}
	return sess, nil
}
