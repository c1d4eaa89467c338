package shared

import (
	"context"

	"github.com/trackline/trackline/internal/session"
)

// SessionContext carries the caller's session identity through a request.
type SessionContext struct {
	ID    string
	Entry session.Entry
}

type sessionContextKey struct{}

// ContextWithSession stores the session context.
func ContextWithSession(ctx context.Context, sc SessionContext) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sc)
}

// SessionFromContext extracts the session context. ok is false when the
// request carried no authenticated session.
func SessionFromContext(ctx context.Context) (SessionContext, bool) {
	sc, ok := ctx.Value(sessionContextKey{}).(SessionContext)
	return sc, ok && sc.ID != ""
}
