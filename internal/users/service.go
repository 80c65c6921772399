package users

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/opencanteen/opencanteen/internal/events"
)

// Publisher fans out user-management changes.
type Publisher interface {
	PublishUserEvent(ctx context.Context, evt events.UserEvent) error
}

// Service handles user business logic.
type Service struct {
	repo      Repository
	publisher Publisher
	logger    *slog.Logger
}

// NewService builds a Service instance. publisher may be nil.
func NewService(repo Repository, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// CreateInput carries fields for a new account.
type CreateInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	RoleID    int64
	SchoolID  *int64
}

// Create registers a new user after username/password validation.
func (s *Service) Create(ctx context.Context, in CreateInput) (*User, error) {
	username := strings.TrimSpace(in.Username)
	if !ValidUsername(username) {
		return nil, ErrInvalidUsername
	}
	if !ValidPassword(in.Password) {
		return nil, ErrInvalidPassword
	}
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        strings.TrimSpace(in.Email),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		RoleID:       in.RoleID,
		SchoolID:     in.SchoolID,
		IsActive:     true,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.publish(ctx, events.UserCreated, u)
	return u, nil
}

// Get loads a user by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.Get(ctx, id)
}

// FindByUsername looks up a user for credential checks.
func (s *Service) FindByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// FindByEmail looks up a user by email, used to link OAuth identities.
func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// List returns users matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]User, int, error) {
	return s.repo.List(ctx, filters)
}

// UpdateInput carries updatable profile fields. Nil pointers leave the
// stored value untouched.
type UpdateInput struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	RoleID    *int64
	SchoolID  *int64
	Password  *string
}

// Update modifies an existing user. Role and school reassignment is
// permission-gated at the handler.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Username != nil && *in.Username != u.Username {
		username := strings.TrimSpace(*in.Username)
		if !ValidUsername(username) {
			return nil, ErrInvalidUsername
		}
		if _, err := s.repo.GetByUsername(ctx, username); err == nil {
			return nil, ErrUsernameTaken
		}
		u.Username = username
	}
	if in.Email != nil {
		u.Email = strings.TrimSpace(*in.Email)
	}
	if in.FirstName != nil {
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.RoleID != nil {
		u.RoleID = *in.RoleID
	}
	if in.SchoolID != nil {
		u.SchoolID = in.SchoolID
	}
	if in.Password != nil {
		if !ValidPassword(*in.Password) {
			return nil, ErrInvalidPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.publish(ctx, events.UserUpdated, u)
	return u, nil
}

// Deactivate disables an account without deleting it.
func (s *Service) Deactivate(ctx context.Context, id string) (*User, error) {
	return s.setActive(ctx, id, false, events.UserDeactivated)
}

// Reactivate re-enables a disabled account.
func (s *Service) Reactivate(ctx context.Context, id string) (*User, error) {
	return s.setActive(ctx, id, true, events.UserReactivated)
}

func (s *Service) setActive(ctx context.Context, id string, active bool, evtType events.Type) (*User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsActive == active {
		return u, nil
	}
	u.IsActive = active
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.publish(ctx, evtType, u)
	return u, nil
}

// SetAvatarObject stores the avatar blob reference.
func (s *Service) SetAvatarObject(ctx context.Context, id, objectKey string) error {
	return s.setObject(ctx, id, func(u *User) { u.AvatarObject = objectKey })
}

// SetSignatureObject stores the signature blob reference used when
// approving reports.
func (s *Service) SetSignatureObject(ctx context.Context, id, objectKey string) error {
	return s.setObject(ctx, id, func(u *User) { u.SignatureObject = objectKey })
}

func (s *Service) setObject(ctx context.Context, id string, apply func(*User)) error {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	apply(u)
	if err := s.repo.Update(ctx, u); err != nil {
		return err
	}
	s.publish(ctx, events.UserUpdated, u)
	return nil
}

// SignatureObject satisfies the report lifecycle's signature lookup.
func (s *Service) SignatureObject(ctx context.Context, userID string) (string, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.SignatureObject, nil
}

// AvatarObject returns the stored avatar blob reference.
func (s *Service) AvatarObject(ctx context.Context, userID string) (string, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.AvatarObject, nil
}

// EmailByUserID returns the user's mail address.
func (s *Service) EmailByUserID(ctx context.Context, userID string) (string, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}

func (s *Service) publish(ctx context.Context, evtType events.Type, u *User) {
	if s.publisher == nil {
		return
	}
	evt := events.UserEvent{Type: evtType, UserID: u.ID, Username: u.Username, At: time.Now()}
	if err := s.publisher.PublishUserEvent(ctx, evt); err != nil {
		s.logger.Warn("publish user event", slog.String("type", string(evtType)), slog.Any("error", err))
	}
}
