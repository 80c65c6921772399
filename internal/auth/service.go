package auth

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/opencanteen/opencanteen/internal/platform/httpx"
	"github.com/opencanteen/opencanteen/internal/shared"
	"github.com/opencanteen/opencanteen/internal/users"
)

// Directory is the slice of user lookup the auth flow needs.
type Directory interface {
	Get(ctx context.Context, id string) (*users.User, error)
	FindByUsername(ctx context.Context, username string) (*users.User, error)
	FindByEmail(ctx context.Context, email string) (*users.User, error)
}

// Session is the result of a successful login.
type Session struct {
	Token     string      `json:"access_token"`
	TokenType string      `json:"token_type"`
	ExpiresAt int64       `json:"expires_at"`
	User      *users.User `json:"user"`
}

// Service authenticates users and manages their tokens.
type Service struct {
	directory Directory
	issuer    *Issuer
	logger    *slog.Logger
}

// NewService builds an auth Service.
func NewService(directory Directory, issuer *Issuer, logger *slog.Logger) *Service {
	return &Service{directory: directory, issuer: issuer, logger: logger}
}

// Login checks credentials and issues an access token. Accounts flagged
// for OTP cannot sign in with a password alone.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	u, err := s.directory.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) || errors.Is(err, users.ErrNotFound) {
			// Burn a hash compare so missing accounts cost the same
			// as wrong passwords.
			_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$000000000000000000000uGZLcjQejBLlchellVm00000000000000"), []byte(password))
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, shared.ErrAccountDeactivated
	}
	if u.OTPRequired {
		return nil, httpx.ErrMFARequired
	}
	return s.createSession(u)
}

// LoginOAuth issues a token for an already-verified external identity,
// linked by email. Unknown emails are rejected, accounts are created
// through user management only.
func (s *Service) LoginOAuth(ctx context.Context, email string) (*Session, error) {
	if email == "" {
		return nil, shared.ErrInvalidCredentials
	}
	u, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) || errors.Is(err, users.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, shared.ErrAccountDeactivated
	}
	return s.createSession(u)
}

// Logout revokes the presented token.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	return s.issuer.Revoke(ctx, claims)
}

// Me resolves the account behind an identity.
func (s *Service) Me(ctx context.Context, identity *shared.Identity) (*users.User, error) {
	return s.directory.Get(ctx, identity.UserID)
}

func (s *Service) createSession(u *users.User) (*Session, error) {
	token, claims, err := s.issuer.Issue(u)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user signed in", "user_id", u.ID, "username", u.Username)
	return &Session{
		Token:     token,
		TokenType: "bearer",
		ExpiresAt: claims.ExpiresAt.Unix(),
		User:      u,
	}, nil
}
