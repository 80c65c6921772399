package roles

import (
	"context"
	"errors"
	"strings"

	"github.com/opencanteen/opencanteen/internal/rbac"
)

// Service orchestrates role operations.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all roles ordered by name.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// Get fetches a role by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Role, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a new role. Unknown permission strings are rejected.
func (s *Service) Create(ctx context.Context, name, description string, permissions []string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("roles: name required")
	}
	if err := validatePermissions(permissions); err != nil {
		return nil, err
	}
	role := &Role{Name: name, Description: strings.TrimSpace(description), Permissions: permissions}
	if err := s.repo.Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// Update replaces a role's name, description and permission set.
func (s *Service) Update(ctx context.Context, id int64, name, description string, permissions []string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("roles: name required")
	}
	if err := validatePermissions(permissions); err != nil {
		return nil, err
	}
	role := &Role{ID: id, Name: name, Description: strings.TrimSpace(description), Permissions: permissions}
	if err := s.repo.Update(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// Delete removes a role by ID.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// PermissionsForRole resolves a role's permission strings for token claims.
func (s *Service) PermissionsForRole(ctx context.Context, roleID int64) ([]string, error) {
	return s.repo.PermissionsForRole(ctx, roleID)
}

func validatePermissions(permissions []string) error {
	for _, p := range permissions {
		if !rbac.KnownPermission(p) {
			return errors.New("roles: unknown permission " + p)
		}
	}
	return nil
}
