package authz

import "testing"

func identityWith(grants ...Grant) *Identity {
	return &Identity{
		UserID: 7,
		Email:  "user@test.local",
		Role:   RoleStaff,
		Grants: grants,
	}
}

func TestHasPermissionFailClosed(t *testing.T) {
	if HasPermission(nil, "products.read") {
		t.Fatal("nil identity must be denied")
	}
	if HasPermission(&Identity{}, "products.read") {
		t.Fatal("grantless identity must be denied")
	}
	if HasPermission(identityWith(), "") {
		t.Fatal("empty permission name must be denied")
	}
}

func TestHasPermissionExactName(t *testing.T) {
	identity := identityWith(
		Grant{Name: "products.read", Module: "products", Action: "read"},
	)
	if !HasPermission(identity, "products.read") {
		t.Fatal("expected held grant to satisfy")
	}
	if HasPermission(identity, "products.update") {
		t.Fatal("unheld grant must be denied")
	}
}

func TestHasAnyPermission(t *testing.T) {
	identity := identityWith(
		Grant{Name: "orders.read", Module: "orders", Action: "read"},
	)
	if !HasAnyPermission(identity, []string{"products.read", "orders.read"}) {
		t.Fatal("expected any-of with one held grant to pass")
	}
	if HasAnyPermission(identity, []string{"products.read", "products.update"}) {
		t.Fatal("any-of with no held grants must be denied")
	}
	if HasAnyPermission(identity, nil) {
		t.Fatal("empty any-of requirement must be denied")
	}
	if HasAnyPermission(nil, []string{"orders.read"}) {
		t.Fatal("nil identity must be denied")
	}
}

func TestHasAllPermissions(t *testing.T) {
	identity := identityWith(
		Grant{Name: "orders.read", Module: "orders", Action: "read"},
		Grant{Name: "orders.update", Module: "orders", Action: "update"},
	)
	if !HasAllPermissions(identity, []string{"orders.read", "orders.update"}) {
		t.Fatal("expected full requirement set to pass")
	}
	if HasAllPermissions(identity, []string{"orders.read", "orders.delete"}) {
		t.Fatal("partial requirement set must be denied")
	}
}

func TestHasAllPermissionsVacuousTruth(t *testing.T) {
	if !HasAllPermissions(identityWith(), nil) {
		t.Fatal("empty all-of requirement must pass")
	}
	// An empty requirement asks for nothing, so even a nil identity holds it.
	if !HasAllPermissions(nil, nil) {
		t.Fatal("empty all-of requirement must pass for nil identity")
	}
	if HasAllPermissions(nil, []string{"orders.read"}) {
		t.Fatal("non-empty requirement on nil identity must be denied")
	}
}

func TestCanAccessExactAction(t *testing.T) {
	identity := identityWith(
		Grant{Name: "products.read", Module: "products", Action: "read"},
	)
	if !CanAccess(identity, "products", "read") {
		t.Fatal("expected exact module and action match")
	}
	if CanAccess(identity, "products", "update") {
		t.Fatal("different action must be denied")
	}
	if CanAccess(identity, "orders", "read") {
		t.Fatal("different module must be denied")
	}
	if CanAccess(nil, "products", "read") {
		t.Fatal("nil identity must be denied")
	}
}

func TestCanAccessManageWildcard(t *testing.T) {
	identity := identityWith(
		Grant{Name: "products.manage", Module: "products", Action: ActionManage},
	)
	for _, action := range []string{"create", "read", "update", "delete", "manage"} {
		if !CanAccess(identity, "products", action) {
			t.Fatalf("manage grant must cover %s within its module", action)
		}
	}
	// The wildcard is scoped to its module.
	if CanAccess(identity, "orders", "read") {
		t.Fatal("manage grant must not leak outside its module")
	}
}

func TestGrantSatisfies(t *testing.T) {
	grant := Grant{Name: "vendors.manage", Module: "vendors", Action: ActionManage}
	if !grant.Satisfies("vendors", "delete") {
		t.Fatal("manage must satisfy delete in module")
	}
	if grant.Satisfies("customers", "delete") {
		t.Fatal("manage must not satisfy foreign module")
	}

	exact := Grant{Name: "vendors.read", Module: "vendors", Action: "read"}
	if exact.Satisfies("vendors", "manage") {
		t.Fatal("plain grant must not satisfy manage")
	}
}

func TestMixedGrantScenario(t *testing.T) {
	identity := identityWith(
		Grant{Name: "dashboard.read", Module: "dashboard", Action: "read"},
		Grant{Name: "products.manage", Module: "products", Action: ActionManage},
		Grant{Name: "orders.read", Module: "orders", Action: "read"},
	)

	checks := []struct {
		module, action string
		want           bool
	}{
		{"dashboard", "read", true},
		{"dashboard", "update", false},
		{"products", "delete", true},
		{"orders", "read", true},
		{"orders", "update", false},
		{"settings", "read", false},
	}
	for _, check := range checks {
		if got := CanAccess(identity, check.module, check.action); got != check.want {
			t.Fatalf("CanAccess(%s, %s) = %v, want %v", check.module, check.action, got, check.want)
		}
	}
}
