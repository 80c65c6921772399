package shared

import "context"

// Identity describes the authenticated caller extracted from a bearer token.
type Identity struct {
	UserID      string
	Username    string
	RoleID      int64
	SchoolID    *int64
	Permissions []string
}

// HasPermission reports whether the identity carries the named permission.
func (id *Identity) HasPermission(perm string) bool {
	if id == nil {
		return false
	}
	for _, p := range id.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

type identityContextKey struct{}

// ContextWithIdentity stores the caller identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the caller identity from context.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
