package audit

import "time"

// Entry is a single audit record for a registry or directory mutation.
type Entry struct {
	ID       int64          `json:"id"`
	Actor    string         `json:"actor"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"at"`
}

// Actions recorded by the service.
const (
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionDelete       = "delete"
	ActionStatusChange = "status_change"
	ActionLogin        = "login"
	ActionLogout       = "logout"
)

// Entities recorded by the service.
const (
	EntityRole = "role"
	EntityUser = "user"
)

// TimelineFilters narrows a timeline listing.
type TimelineFilters struct {
	Actor  string
	Entity string
	Action string
	From   time.Time
	To     time.Time
}
