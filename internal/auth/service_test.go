package auth

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/opencanteen/opencanteen/internal/platform/httpx"
	"github.com/opencanteen/opencanteen/internal/shared"
	"github.com/opencanteen/opencanteen/internal/users"
)

type mockDirectory struct {
	byID       map[string]*users.User
	byUsername map[string]*users.User
	byEmail    map[string]*users.User
}

func newMockDirectory(us ...*users.User) *mockDirectory {
	m := &mockDirectory{
		byID:       map[string]*users.User{},
		byUsername: map[string]*users.User{},
		byEmail:    map[string]*users.User{},
	}
	for _, u := range us {
		m.byID[u.ID] = u
		m.byUsername[u.Username] = u
		if u.Email != "" {
			m.byEmail[u.Email] = u
		}
	}
	return m
}

func (m *mockDirectory) Get(_ context.Context, id string) (*users.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, users.ErrNotFound
}

func (m *mockDirectory) FindByUsername(_ context.Context, username string) (*users.User, error) {
	if u, ok := m.byUsername[username]; ok {
		return u, nil
	}
	return nil, users.ErrNotFound
}

func (m *mockDirectory) FindByEmail(_ context.Context, email string) (*users.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, users.ErrNotFound
}

func testUser(t *testing.T, password string) *users.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &users.User{
		ID:           "7f8a8c1e-0000-4000-8000-000000000001",
		Username:     "principal",
		Email:        "principal@example.edu",
		RoleID:       2,
		IsActive:     true,
		PasswordHash: string(hash),
	}
}

func newTestService(t *testing.T, us ...*users.User) (*Service, *Issuer) {
	t.Helper()
	issuer := NewIssuer("test-secret", time.Hour, nil)
	return NewService(newMockDirectory(us...), issuer, slog.Default()), issuer
}

func TestLogin(t *testing.T) {
	u := testUser(t, "Str0ngPass")
	svc, issuer := newTestService(t, u)

	session, err := svc.Login(context.Background(), "principal", "Str0ngPass")
	require.NoError(t, err)
	assert.Equal(t, "bearer", session.TokenType)
	assert.Equal(t, u.ID, session.User.ID)

	claims, err := issuer.Verify(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, "principal", claims.Username)
	assert.Equal(t, int64(2), claims.RoleID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t, testUser(t, "Str0ngPass"))

	_, err := svc.Login(context.Background(), "principal", "WrongPass1")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "ghost", "Str0ngPass")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	u := testUser(t, "Str0ngPass")
	u.IsActive = false
	svc, _ := newTestService(t, u)

	_, err := svc.Login(context.Background(), "principal", "Str0ngPass")
	assert.ErrorIs(t, err, shared.ErrAccountDeactivated)
}

func TestLoginOTPRequired(t *testing.T) {
	u := testUser(t, "Str0ngPass")
	u.OTPRequired = true
	svc, _ := newTestService(t, u)

	_, err := svc.Login(context.Background(), "principal", "Str0ngPass")
	assert.ErrorIs(t, err, httpx.ErrMFARequired)
}

func TestLoginOAuthLinksByEmail(t *testing.T) {
	u := testUser(t, "Str0ngPass")
	svc, _ := newTestService(t, u)

	session, err := svc.LoginOAuth(context.Background(), "principal@example.edu")
	require.NoError(t, err)
	assert.Equal(t, u.ID, session.User.ID)

	_, err = svc.LoginOAuth(context.Background(), "stranger@example.edu")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	u := testUser(t, "Str0ngPass")
	issuer := NewIssuer("test-secret", time.Hour, rdb)
	svc := NewService(newMockDirectory(u), issuer, slog.Default())

	session, err := svc.Login(context.Background(), "principal", "Str0ngPass")
	require.NoError(t, err)
	claims, err := issuer.Verify(context.Background(), session.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims))

	_, err = issuer.Verify(context.Background(), session.Token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsForgedToken(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour, nil)
	other := NewIssuer("other-secret", time.Hour, nil)

	token, _, err := other.Issue(testUser(t, "Str0ngPass"))
	require.NoError(t, err)

	_, err = issuer.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour, nil)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := issuer.Issue(testUser(t, "Str0ngPass"))
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
