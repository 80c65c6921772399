package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDeactivated indicates the account is disabled.
	ErrAccountDeactivated = errors.New("account deactivated")
)

// UserSafeMessage returns a message suitable for surfacing to API clients.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "The requested record was not found."
	case errors.Is(err, ErrInvalidCredentials):
		return "Username or password is incorrect."
	case errors.Is(err, ErrAccountDeactivated):
		return "This account has been deactivated."
	default:
		return err.Error()
	}
}
