package users

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/opencanteen/opencanteen/internal/events"
)

type mockRepository struct {
	byID       map[string]*User
	byUsername map[string]*User
}

func newMockRepository() *mockRepository {
	return &mockRepository{byID: map[string]*User{}, byUsername: map[string]*User{}}
}

func (m *mockRepository) Get(ctx context.Context, id string) (*User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *mockRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, ok := m.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *mockRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) List(ctx context.Context, filters ListFilters) ([]User, int, error) {
	var out []User
	for _, u := range m.byID {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(ctx context.Context, u *User) error {
	if _, exists := m.byUsername[u.Username]; exists {
		return ErrUsernameTaken
	}
	clone := *u
	m.byID[u.ID] = &clone
	m.byUsername[u.Username] = &clone
	return nil
}

func (m *mockRepository) Update(ctx context.Context, u *User) error {
	old, ok := m.byID[u.ID]
	if !ok {
		return ErrNotFound
	}
	delete(m.byUsername, old.Username)
	clone := *u
	m.byID[u.ID] = &clone
	m.byUsername[u.Username] = &clone
	return nil
}

type mockPublisher struct {
	events []events.UserEvent
}

func (m *mockPublisher) PublishUserEvent(ctx context.Context, evt events.UserEvent) error {
	m.events = append(m.events, evt)
	return nil
}

func newTestService() (*Service, *mockRepository, *mockPublisher) {
	repo := newMockRepository()
	pub := &mockPublisher{}
	return NewService(repo, pub, slog.Default()), repo, pub
}

func TestValidUsername(t *testing.T) {
	assert.True(t, ValidUsername("juan_dela-cruz"))
	assert.True(t, ValidUsername("abcd"))
	assert.False(t, ValidUsername("abc"))
	assert.False(t, ValidUsername("with spaces"))
	assert.False(t, ValidUsername("exactly-twentytwo-char"))
}

func TestValidPassword(t *testing.T) {
	assert.True(t, ValidPassword("Sup3rSecret"))
	assert.False(t, ValidPassword("short1A"))
	assert.False(t, ValidPassword("nouppercase1"))
	assert.False(t, ValidPassword("NOLOWERCASE1"))
	assert.False(t, ValidPassword("NoDigitsHere"))
}

func TestCreateUser(t *testing.T) {
	svc, _, pub := newTestService()
	u, err := svc.Create(context.Background(), CreateInput{
		Username: "canteen_clerk",
		Password: "Sup3rSecret",
		Email:    "clerk@school.edu",
		RoleID:   2,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.True(t, u.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("Sup3rSecret")))

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.UserCreated, pub.events[0].Type)
}

func TestCreateUserRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Username: "ab", Password: "Sup3rSecret"})
	assert.ErrorIs(t, err, ErrInvalidUsername)

	_, err = svc.Create(ctx, CreateInput{Username: "valid_name", Password: "weak"})
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateInput{Username: "canteen_clerk", Password: "Sup3rSecret"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Username: "canteen_clerk", Password: "Sup3rSecret"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestDeactivateReactivatePublishesEvents(t *testing.T) {
	svc, _, pub := newTestService()
	ctx := context.Background()
	u, err := svc.Create(ctx, CreateInput{Username: "canteen_clerk", Password: "Sup3rSecret"})
	require.NoError(t, err)

	got, err := svc.Deactivate(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// Repeated deactivation is a no-op and publishes nothing new.
	_, err = svc.Deactivate(ctx, u.ID)
	require.NoError(t, err)

	got, err = svc.Reactivate(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	types := make([]events.Type, 0, len(pub.events))
	for _, evt := range pub.events {
		types = append(types, evt.Type)
	}
	assert.Equal(t, []events.Type{events.UserCreated, events.UserDeactivated, events.UserReactivated}, types)
}

func TestSignatureObjectLookup(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	u, err := svc.Create(ctx, CreateInput{Username: "principal1", Password: "Sup3rSecret"})
	require.NoError(t, err)

	sig, err := svc.SignatureObject(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, sig)

	require.NoError(t, svc.SetSignatureObject(ctx, u.ID, "signatures/p1.png"))
	sig, err = svc.SignatureObject(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "signatures/p1.png", sig)
	assert.Equal(t, "signatures/p1.png", repo.byID[u.ID].SignatureObject)
}

func TestUpdateUsernameCollision(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateInput{Username: "first_user", Password: "Sup3rSecret"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateInput{Username: "second_user", Password: "Sup3rSecret"})
	require.NoError(t, err)

	taken := "first_user"
	_, err = svc.Update(ctx, second.ID, UpdateInput{Username: &taken})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}
