package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed input to a create or update operation.
	ErrValidation = errors.New("validation failed")
	// ErrProtectedRole indicates an attempt to delete a default system role.
	ErrProtectedRole = errors.New("role is protected")
	// ErrRoleInUse indicates an attempt to delete a role still assigned to users.
	ErrRoleInUse = errors.New("role is assigned to users")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginLocked indicates login is temporarily blocked after repeated failures.
	ErrLoginLocked = errors.New("too many failed login attempts")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage maps internal errors to a message safe to show callers.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "The requested record does not exist."
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrProtectedRole):
		return "Default roles cannot be deleted."
	case errors.Is(err, ErrRoleInUse):
		return "This role is still assigned to one or more users."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrLoginLocked):
		return "Too many failed attempts. Try again later."
	default:
		return "Something went wrong. Please try again."
	}
}
