package middleware

import (
	"context"
	"net/http"
	"strings"

	"volunteerhub/internal/delivery/http/helpers"
	"volunteerhub/internal/domain"
)

type contextKey string

const actorKey contextKey = "actor"

// SetActor returns a context with the authenticated actor set. Used by auth middleware.
func SetActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the authenticated actor from the context, if present.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}

// RequireAuth returns a wrapper that validates the Bearer token and sets the
// actor (identity + role) in the request context. If the token is missing or
// invalid, it responds with 401 and does not call next.
func RequireAuth(verifier domain.TokenVerifier) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "missing authorization header")
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "invalid authorization format")
				return
			}
			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "missing token")
				return
			}
			actor, err := verifier.Verify(token)
			if err != nil {
				helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			r = r.WithContext(SetActor(r.Context(), actor))
			next(w, r)
		}
	}
}

// RequireAdmin wraps a handler that only admins may call. It must run inside
// RequireAuth so the actor is present in the context.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
			return
		}
		if !actor.IsAdmin() {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "admin role required")
			return
		}
		next(w, r)
	}
}
