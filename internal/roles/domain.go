package roles

import (
	"time"

	"github.com/shoebox/backoffice/internal/authz"
	"github.com/shoebox/backoffice/internal/catalog"
)

// Role is a named bundle of permissions. The permission set is a snapshot
// drawn from the catalog at write time. Default roles are system-protected
// and cannot be deleted.
type Role struct {
	ID          int64                `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Permissions []catalog.Permission `json:"permissions"`
	IsDefault   bool                 `json:"is_default"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	CreatedBy   string               `json:"created_by"`
}

// HasPermissionID reports whether the role's set contains the permission id.
func (r Role) HasPermissionID(id int64) bool {
	for _, p := range r.Permissions {
		if p.ID == id {
			return true
		}
	}
	return false
}

// PermissionNames returns the names of the role's permissions in set order.
func (r Role) PermissionNames() []string {
	names := make([]string, len(r.Permissions))
	for i, p := range r.Permissions {
		names[i] = p.Name
	}
	return names
}

// Grants converts the role's permission snapshot into evaluator grants.
func (r Role) Grants() []authz.Grant {
	grants := make([]authz.Grant, len(r.Permissions))
	for i, p := range r.Permissions {
		grants[i] = authz.Grant{Name: p.Name, Module: p.Module, Action: string(p.Action)}
	}
	return grants
}
