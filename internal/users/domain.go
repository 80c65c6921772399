// Package users manages user accounts, their role and school assignment,
// and the avatar/signature blob references consumed elsewhere.
package users

import (
	"errors"
	"time"
)

// User represents a user account.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`

	RoleID   int64  `json:"role_id"`
	SchoolID *int64 `json:"school_id,omitempty"`

	AvatarObject    string `json:"avatar_object,omitempty"`
	SignatureObject string `json:"signature_object,omitempty"`

	OTPRequired bool `json:"otp_required"`
	IsActive    bool `json:"is_active"`

	PasswordHash string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	// ErrNotFound indicates the user does not exist.
	ErrNotFound = errors.New("users: not found")
	// ErrUsernameTaken indicates a duplicate username.
	ErrUsernameTaken = errors.New("users: username already exists")
	// ErrInvalidUsername indicates a rejected username format.
	ErrInvalidUsername = errors.New("users: invalid username")
	// ErrInvalidPassword indicates a rejected password format.
	ErrInvalidPassword = errors.New("users: invalid password format")
)
