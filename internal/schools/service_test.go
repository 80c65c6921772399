package schools

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	schools map[int64]*School
	nextID  int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{schools: map[int64]*School{}, nextID: 1}
}

func (m *mockRepository) List(_ context.Context, filters ListFilters) ([]School, int, error) {
	var list []School
	for _, s := range m.schools {
		if filters.Search != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(filters.Search)) {
			continue
		}
		if filters.Active != nil && s.IsActive != *filters.Active {
			continue
		}
		list = append(list, *s)
	}
	return list, len(list), nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (*School, error) {
	s, ok := m.schools[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (m *mockRepository) Create(_ context.Context, school *School) error {
	for _, existing := range m.schools {
		if strings.EqualFold(existing.Name, school.Name) {
			return ErrDuplicateName
		}
	}
	school.ID = m.nextID
	m.nextID++
	clone := *school
	m.schools[school.ID] = &clone
	return nil
}

func (m *mockRepository) Update(_ context.Context, school *School) error {
	if _, ok := m.schools[school.ID]; !ok {
		return ErrNotFound
	}
	for _, existing := range m.schools {
		if existing.ID != school.ID && strings.EqualFold(existing.Name, school.Name) {
			return ErrDuplicateName
		}
	}
	clone := *school
	m.schools[school.ID] = &clone
	return nil
}

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	return NewService(repo, slog.Default()), repo
}

func TestCreateSchool(t *testing.T) {
	svc, _ := newTestService()

	school, err := svc.Create(context.Background(), CreateInput{Name: "  Mabini Elementary  ", Address: "Poblacion"})
	require.NoError(t, err)
	assert.Equal(t, "Mabini Elementary", school.Name)
	assert.True(t, school.IsActive)
	assert.NotZero(t, school.ID)
}

func TestCreateSchoolDuplicateName(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{Name: "Mabini Elementary"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateInput{Name: "mabini elementary"})
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestUpdateSchoolPatchesOnlyProvidedFields(t *testing.T) {
	svc, _ := newTestService()
	school, err := svc.Create(context.Background(), CreateInput{Name: "Mabini Elementary", Address: "Poblacion"})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(context.Background(), school.ID, UpdateInput{IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Mabini Elementary", updated.Name)
	assert.Equal(t, "Poblacion", updated.Address)
	assert.False(t, updated.IsActive)
}

func TestSchoolName(t *testing.T) {
	svc, _ := newTestService()
	school, err := svc.Create(context.Background(), CreateInput{Name: "Rizal Central"})
	require.NoError(t, err)

	name, err := svc.SchoolName(context.Background(), school.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rizal Central", name)

	_, err = svc.SchoolName(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetLogoObject(t *testing.T) {
	svc, _ := newTestService()
	school, err := svc.Create(context.Background(), CreateInput{Name: "Rizal Central"})
	require.NoError(t, err)

	require.NoError(t, svc.SetLogoObject(context.Background(), school.ID, "logos/rizal.png"))

	object, err := svc.LogoObject(context.Background(), school.ID)
	require.NoError(t, err)
	assert.Equal(t, "logos/rizal.png", object)
}
