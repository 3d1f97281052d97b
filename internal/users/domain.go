package users

import (
	"time"

	"github.com/shoebox/backoffice/internal/roles"
)

// Status is the account lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// Valid reports whether the status is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// Toggled returns the state the single toggle action moves to. Active
// suspends, suspended and inactive both reactivate; there is no toggle path
// into inactive (that requires an explicit edit).
func (s Status) Toggled() Status {
	if s == StatusActive {
		return StatusSuspended
	}
	return StatusActive
}

// User is a directory account. Role is a full snapshot of the assigned role
// taken at assignment time, not a live reference: later edits to the role
// definition do not propagate to users already holding it.
type User struct {
	ID        int64      `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	Avatar    string     `json:"avatar,omitempty"`
	Status    Status     `json:"status"`
	Role      roles.Role `json:"role"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	CreatedBy string     `json:"created_by"`
}

// FullName returns the display name.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
