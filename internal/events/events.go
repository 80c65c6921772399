// Package events delivers user-management change notifications to admin
// clients. It is a convenience fan-out, not a correctness mechanism:
// listeners that miss an event simply refetch the list.
package events

import "time"

// Type enumerates the published event variants.
type Type string

const (
	UserCreated     Type = "user.created"
	UserUpdated     Type = "user.updated"
	UserDeactivated Type = "user.deactivated"
	UserReactivated Type = "user.reactivated"
)

// UserEvent is the payload pushed for user-management changes.
type UserEvent struct {
	Type     Type      `json:"type"`
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}
