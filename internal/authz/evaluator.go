// Package authz implements the authorization predicates used by HTTP guards.
//
// Every predicate is a total function: missing or partial identity data
// always evaluates to a denial, never to an error. This fail-closed behaviour
// is the security invariant of the package and must be preserved by any
// change here.
package authz

// ActionManage is the module-scoped wildcard action. A manage grant
// satisfies any action within its own module and nothing outside it.
const ActionManage = "manage"

// CoarseRole is the session-level role tag, distinct from a directory Role.
type CoarseRole string

const (
	RoleAdmin CoarseRole = "admin"
	RoleStaff CoarseRole = "staff"
)

// Grant is a single permission held by an identity: a named capability
// tagged with a module and an action.
type Grant struct {
	Name   string `json:"name"`
	Module string `json:"module"`
	Action string `json:"action"`
}

// Satisfies reports whether the grant covers a request for the given module
// and action.
func (g Grant) Satisfies(module, action string) bool {
	if g.Module != module {
		return false
	}
	return g.Action == action || g.Action == ActionManage
}

// Identity is the authenticated principal an evaluator runs against. A nil
// or grantless identity is denied everything.
type Identity struct {
	UserID   int64      `json:"user_id"`
	Email    string     `json:"email"`
	Name     string     `json:"name"`
	Role     CoarseRole `json:"role"`
	RoleName string     `json:"role_name,omitempty"`
	Grants   []Grant    `json:"grants,omitempty"`
}

// HasPermission reports whether the identity holds a grant with the given
// name.
func HasPermission(identity *Identity, name string) bool {
	if identity == nil {
		return false
	}
	for _, g := range identity.Grants {
		if g.Name == name {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether the identity holds at least one of the
// named grants. An empty requirement list denies.
func HasAnyPermission(identity *Identity, names []string) bool {
	if identity == nil || len(names) == 0 {
		return false
	}
	held := grantNameSet(identity)
	for _, name := range names {
		if _, ok := held[name]; ok {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the identity holds every named grant.
// An empty requirement list is vacuously satisfied, even for an identity
// with no role data.
func HasAllPermissions(identity *Identity, names []string) bool {
	if len(names) == 0 {
		return true
	}
	if identity == nil {
		return false
	}
	held := grantNameSet(identity)
	for _, name := range names {
		if _, ok := held[name]; !ok {
			return false
		}
	}
	return true
}

// CanAccess reports whether the identity may perform action within module.
func CanAccess(identity *Identity, module, action string) bool {
	if identity == nil {
		return false
	}
	for _, g := range identity.Grants {
		if g.Satisfies(module, action) {
			return true
		}
	}
	return false
}

func grantNameSet(identity *Identity) map[string]struct{} {
	set := make(map[string]struct{}, len(identity.Grants))
	for _, g := range identity.Grants {
		set[g.Name] = struct{}{}
	}
	return set
}
