package middleware

import (
	"context"
	"strconv"

	"github.com/angelmondragon/foodstore/pkg/auth/session"
)

type contextKey string

const (
	ctxSession contextKey = "session"
)

// SessionFromContext returns the signed-in session or nil for anonymous requests.
func SessionFromContext(ctx context.Context) *session.Session {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxSession).(*session.Session); ok {
		return v
	}
	return nil
}

func UserIDFromContext(ctx context.Context) string {
	sess := SessionFromContext(ctx)
	if sess == nil || sess.UserID <= 0 {
		return ""
	}
	return strconv.FormatInt(sess.UserID, 10)
}

func RoleFromContext(ctx context.Context) string {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return ""
	}
	return string(sess.Role)
}

// WithSession injects the session into the context for downstream handlers.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, sess)
}
