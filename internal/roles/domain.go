// Package roles manages role definitions and their permission strings.
package roles

import "errors"

// Role groups users under a named set of permissions.
type Role struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
}

// ErrNotFound indicates that the requested role does not exist.
var ErrNotFound = errors.New("roles: not found")

// ErrDuplicateName indicates a role name collision.
var ErrDuplicateName = errors.New("roles: name already exists")
