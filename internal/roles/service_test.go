package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencanteen/opencanteen/internal/rbac"
)

type mockRepository struct {
	roles  map[int64]*Role
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{roles: map[int64]*Role{}, nextID: 1}
}

func (m *mockRepository) List(context.Context) ([]Role, error) {
	var out []Role
	for _, r := range m.roles {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *r
	return &clone, nil
}

func (m *mockRepository) Create(_ context.Context, role *Role) error {
	for _, existing := range m.roles {
		if existing.Name == role.Name {
			return ErrDuplicateName
		}
	}
	role.ID = m.nextID
	m.nextID++
	clone := *role
	m.roles[role.ID] = &clone
	return nil
}

func (m *mockRepository) Update(_ context.Context, role *Role) error {
	if _, ok := m.roles[role.ID]; !ok {
		return ErrNotFound
	}
	clone := *role
	m.roles[role.ID] = &clone
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.roles[id]; !ok {
		return ErrNotFound
	}
	delete(m.roles, id)
	return nil
}

func (m *mockRepository) PermissionsForRole(_ context.Context, roleID int64) ([]string, error) {
	r, ok := m.roles[roleID]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Permissions, nil
}

func TestCreateRole(t *testing.T) {
	svc := NewService(newMockRepository())

	role, err := svc.Create(context.Background(), "principal", "School head", []string{rbac.PermReportsRead, rbac.PermReportsApprove})
	require.NoError(t, err)
	assert.NotZero(t, role.ID)

	perms, err := svc.PermissionsForRole(context.Background(), role.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{rbac.PermReportsRead, rbac.PermReportsApprove}, perms)
}

func TestCreateRoleRejectsUnknownPermission(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Create(context.Background(), "odd", "", []string{"reports:frobnicate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown permission")
}

func TestCreateRoleDuplicateName(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Create(context.Background(), "principal", "", nil)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "principal", "", nil)
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestUpdateRoleReplacesPermissions(t *testing.T) {
	svc := NewService(newMockRepository())
	role, err := svc.Create(context.Background(), "principal", "", []string{rbac.PermReportsRead})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), role.ID, "principal", "School head", []string{rbac.PermReportsApprove})
	require.NoError(t, err)
	assert.Equal(t, []string{rbac.PermReportsApprove}, updated.Permissions)
}

func TestKnownPermissionCatalogue(t *testing.T) {
	for _, p := range rbac.Permissions() {
		assert.True(t, rbac.KnownPermission(p), p)
	}
	assert.False(t, rbac.KnownPermission("nope:never"))
}
