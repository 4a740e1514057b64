package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/foodstore/api/responses"
	pkgAuth "github.com/angelmondragon/foodstore/pkg/auth"
	"github.com/angelmondragon/foodstore/pkg/auth/session"
	"github.com/angelmondragon/foodstore/pkg/config"
	pkgerrors "github.com/angelmondragon/foodstore/pkg/errors"
	"github.com/angelmondragon/foodstore/pkg/logger"
)

// Auth validates the access token, loads the session it names and seeds the
// request context with it.
func Auth(cfg config.JWTConfig, sessions session.Checker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := resolveSession(r, cfg, sessions)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if sess == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			next.ServeHTTP(w, r.WithContext(attachSession(r.Context(), sess, logg)))
		})
	}
}

// OptionalAuth seeds the session when valid credentials are present and lets
// anonymous or stale requests through untouched. The payment return pages use
// it because the browser arrives there by redirect.
func OptionalAuth(cfg config.JWTConfig, sessions session.Checker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := resolveSession(r, cfg, sessions)
			if err != nil {
				if logg != nil && pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
					logg.WarnErr(r.Context(), "auth.optional_session_unavailable", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(attachSession(r.Context(), sess, logg)))
		})
	}
}

// resolveSession returns (nil, nil) when the request carries no credentials.
func resolveSession(r *http.Request, cfg config.JWTConfig, sessions session.Checker) (*session.Session, error) {
	token := bearerToken(r)
	if token == "" && cfg.CookieName != "" {
		if cookie, err := r.Cookie(cfg.CookieName); err == nil {
			token = strings.TrimSpace(cookie.Value)
		}
	}
	if token == "" {
		return nil, nil
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "session store unavailable")
	}

	sess, err := sessions.Load(r.Context(), claims.ID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
	}
	if sess.UserID != claims.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session mismatch")
	}
	return sess, nil
}

func bearerToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

func attachSession(ctx context.Context, sess *session.Session, logg *logger.Logger) context.Context {
	ctx = WithSession(ctx, sess)
	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"user_id":    UserIDFromContext(ctx),
			"actor_role": string(sess.Role),
			"session_id": sess.ID,
		})
	}
	return ctx
}
