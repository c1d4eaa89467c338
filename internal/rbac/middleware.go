package rbac

import (
	"net/http"

	"github.com/trackline/trackline/internal/platform/httpx"
	"github.com/trackline/trackline/internal/shared"
)

// Middleware wires the authorization gate into chi handler chains. The
// session must already be in the request context (app session middleware);
// a denied check short-circuits before the handler runs.
type Middleware struct {
	Gate *Gate
}

// Require ensures the current session holds every listed permission.
func (m Middleware) Require(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc, ok := shared.SessionFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if !m.Gate.AllowAll(r.Context(), sc.ID, permissions...) {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny ensures the current session holds at least one of the listed
// permissions.
func (m Middleware) RequireAny(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc, ok := shared.SessionFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if len(permissions) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			for _, permission := range permissions {
				if m.Gate.Allow(r.Context(), sc.ID, permission) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.RespondError(w, httpx.ErrForbidden)
		})
	}
}
