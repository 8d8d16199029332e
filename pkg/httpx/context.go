package httpx

import (
	"context"
	"net/http"

	"github.com/vitrine/identity/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID    ctxKey = "user_id"
	CtxKeyRole      ctxKey = "role"
	CtxKeySessionID ctxKey = "session_id"
)

// Middleware wraps an http.Handler with additional behaviour.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares right-to-left so the first listed runs first.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyRole, c.Role)
	ctx = context.WithValue(ctx, CtxKeySessionID, c.SessionID)
	return ctx
}

// UserIDFromContext returns the authenticated user ID, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CtxKeyUserID).(string)
	return id, ok && id != ""
}

// SessionIDFromContext returns the session row ID bound to the bearer token.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CtxKeySessionID).(string)
	return id, ok && id != ""
}

// RoleFromContext returns the authenticated role, if any.
func RoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(CtxKeyRole).(string)
	return role, ok && role != ""
}
