package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/opencanteen/opencanteen/internal/platform/httpx"
	"github.com/opencanteen/opencanteen/internal/shared"
)

// PermissionResolver maps a role to its permission strings.
type PermissionResolver interface {
	PermissionsForRole(ctx context.Context, roleID int64) ([]string, error)
}

// Middleware authenticates bearer tokens and attaches the caller
// identity to the request context.
type Middleware struct {
	issuer      *Issuer
	permissions PermissionResolver
	logger      *slog.Logger
}

// NewMiddleware builds the auth Middleware.
func NewMiddleware(issuer *Issuer, permissions PermissionResolver, logger *slog.Logger) *Middleware {
	return &Middleware{issuer: issuer, permissions: permissions, logger: logger}
}

// Authenticate rejects requests without a valid bearer token.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		claims, err := m.issuer.Verify(r.Context(), token)
		if err != nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		perms, err := m.permissions.PermissionsForRole(r.Context(), claims.RoleID)
		if err != nil {
			m.logger.Error("resolve permissions", slog.Any("error", err), "role_id", claims.RoleID)
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		identity := &shared.Identity{
			UserID:      claims.Subject,
			Username:    claims.Username,
			RoleID:      claims.RoleID,
			SchoolID:    claims.SchoolID,
			Permissions: perms,
		}
		ctx := shared.ContextWithIdentity(r.Context(), identity)
		ctx = contextWithClaims(ctx, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type claimsKey struct{}

func contextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the verified token claims, if any.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey{}).(*Claims)
	return claims
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
