// Package schools manages the school registry.
package schools

import (
	"errors"
	"time"
)

// School is one canteen-operating school.
type School struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address,omitempty"`
	LogoObject string    `json:"logo_object,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

var (
	// ErrNotFound indicates the school does not exist.
	ErrNotFound = errors.New("schools: not found")
	// ErrDuplicateName indicates a school name collision.
	ErrDuplicateName = errors.New("schools: name already exists")
)
