package rbac

import (
	"log/slog"
	"net/http"

	"github.com/opencanteen/opencanteen/internal/platform/httpx"
	"github.com/opencanteen/opencanteen/internal/shared"
)

// Middleware gates routes on the caller's permission set.
type Middleware struct {
	Logger *slog.Logger
}

// Require rejects requests whose identity lacks the named permission.
func (m Middleware) Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := shared.IdentityFromContext(r.Context())
			if id == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if !id.HasPermission(perm) {
				if m.Logger != nil {
					m.Logger.Warn("permission denied",
						slog.String("user", id.UserID),
						slog.String("permission", perm),
						slog.String("path", r.URL.Path))
				}
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
