package roles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shoebox/backoffice/internal/catalog"
	"github.com/shoebox/backoffice/internal/shared"
)

type stubAssignments struct {
	counts map[int64]int
	err    error
}

func (s *stubAssignments) CountUsersWithRole(ctx context.Context, roleID int64) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.counts[roleID], nil
}

func newTestService(seed []Role, assignments AssignmentCounter) *Service {
	catalogService := catalog.NewService(catalog.NewMemoryRepository(catalog.Seed()))
	svc := NewService(NewMemoryRepository(seed), catalogService, assignments)
	svc.clock = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func defaultAdminRole() Role {
	return Role{
		Name:        "Administrator",
		Description: "Full access",
		Permissions: catalog.Seed(),
		IsDefault:   true,
	}
}

func TestCreateRoleSnapshotsPermissions(t *testing.T) {
	svc := newTestService(nil, nil)

	role, err := svc.Create(context.Background(), CreateRoleInput{
		Name:          "Support",
		Description:   "Customer support team",
		PermissionIDs: []int64{1, 2, 3},
		CreatedBy:     "admin@shoebox.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if role.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if len(role.Permissions) != 3 {
		t.Fatalf("expected 3 snapshotted permissions, got %d", len(role.Permissions))
	}
	if role.IsDefault {
		t.Fatal("created roles must not be default")
	}
	if !role.CreatedAt.Equal(role.UpdatedAt) {
		t.Fatal("timestamps must match on create")
	}
}

func TestCreateRoleValidation(t *testing.T) {
	svc := newTestService(nil, nil)

	cases := []struct {
		name  string
		input CreateRoleInput
	}{
		{"missing name", CreateRoleInput{Description: "d", PermissionIDs: []int64{1}}},
		{"missing description", CreateRoleInput{Name: "n", PermissionIDs: []int64{1}}},
		{"no permissions", CreateRoleInput{Name: "n", Description: "d"}},
		{"blank name", CreateRoleInput{Name: "   ", Description: "d", PermissionIDs: []int64{1}}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(context.Background(), tc.input); !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
}

func TestCreateRoleUnknownPermission(t *testing.T) {
	svc := newTestService(nil, nil)

	_, err := svc.Create(context.Background(), CreateRoleInput{
		Name:          "Ghost",
		Description:   "References a missing permission",
		PermissionIDs: []int64{1, 9999},
	})
	if !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateRoleDuplicateName(t *testing.T) {
	svc := newTestService([]Role{defaultAdminRole()}, nil)

	_, err := svc.Create(context.Background(), CreateRoleInput{
		Name:          "administrator",
		Description:   "case-insensitive duplicate",
		PermissionIDs: []int64{1},
	})
	if !errors.Is(err, shared.ErrValidation) {
		t.Fatalf("expected ErrValidation for duplicate name, got %v", err)
	}
}

func TestUpdateRolePartial(t *testing.T) {
	svc := newTestService([]Role{{
		Name:        "Support",
		Description: "Old description",
		Permissions: catalog.Seed()[:2],
		CreatedAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}}, nil)

	description := "New description"
	role, err := svc.Update(context.Background(), 1, UpdateRoleInput{Description: &description})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if role.Name != "Support" {
		t.Fatalf("name must be untouched, got %q", role.Name)
	}
	if role.Description != description {
		t.Fatalf("description not updated: %q", role.Description)
	}
	if len(role.Permissions) != 2 {
		t.Fatalf("permissions must be untouched, got %d", len(role.Permissions))
	}
	if !role.UpdatedAt.After(role.CreatedAt) {
		t.Fatal("updated_at must advance")
	}
}

func TestUpdateRoleReplacesPermissionSet(t *testing.T) {
	svc := newTestService([]Role{{
		Name:        "Support",
		Description: "desc",
		Permissions: catalog.Seed()[:1],
	}}, nil)

	ids := []int64{4, 5, 6}
	role, err := svc.Update(context.Background(), 1, UpdateRoleInput{PermissionIDs: &ids})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(role.Permissions) != 3 {
		t.Fatalf("expected full replacement, got %d permissions", len(role.Permissions))
	}
	for _, p := range role.Permissions {
		if p.ID != 4 && p.ID != 5 && p.ID != 6 {
			t.Fatalf("unexpected permission %d in set", p.ID)
		}
	}
}

func TestUpdateRoleNotFound(t *testing.T) {
	svc := newTestService(nil, nil)

	name := "x"
	_, err := svc.Update(context.Background(), 42, UpdateRoleInput{Name: &name})
	if !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteDefaultRoleProtected(t *testing.T) {
	svc := newTestService([]Role{defaultAdminRole()}, &stubAssignments{})

	err := svc.Delete(context.Background(), 1)
	if !errors.Is(err, shared.ErrProtectedRole) {
		t.Fatalf("expected ErrProtectedRole, got %v", err)
	}
}

func TestDeleteRoleInUse(t *testing.T) {
	svc := newTestService([]Role{{
		Name:        "Support",
		Description: "desc",
		Permissions: catalog.Seed()[:1],
	}}, &stubAssignments{counts: map[int64]int{1: 3}})

	err := svc.Delete(context.Background(), 1)
	if !errors.Is(err, shared.ErrRoleInUse) {
		t.Fatalf("expected ErrRoleInUse, got %v", err)
	}
}

func TestDeleteUnassignedRole(t *testing.T) {
	svc := newTestService([]Role{{
		Name:        "Support",
		Description: "desc",
		Permissions: catalog.Seed()[:1],
	}}, &stubAssignments{})

	if err := svc.Delete(context.Background(), 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), 1); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected role gone, got %v", err)
	}
}

func TestSelectionMarkersFollowRoleSet(t *testing.T) {
	all := catalog.Seed()
	var products []catalog.Permission
	for _, p := range all {
		if p.Module == catalog.ModuleProducts {
			products = append(products, p)
		}
	}

	svc := newTestService([]Role{{
		Name:        "Merchandiser",
		Description: "Product management only",
		Permissions: products,
	}}, nil)

	groups, err := svc.Selection(context.Background(), 1)
	if err != nil {
		t.Fatalf("selection: %v", err)
	}
	for _, g := range groups {
		if g.Module == catalog.ModuleProducts {
			if !g.FullySelected {
				t.Fatalf("products should be fully selected: %+v", g)
			}
			continue
		}
		if g.FullySelected || g.PartiallySelected {
			t.Fatalf("module %s should be unselected", g.Module)
		}
	}
}

func TestRoleGrantsConversion(t *testing.T) {
	role := Role{Permissions: []catalog.Permission{
		{ID: 1, Name: "products.manage", Module: catalog.ModuleProducts, Action: catalog.ActionManage},
	}}
	grants := role.Grants()
	if len(grants) != 1 {
		t.Fatalf("expected 1 grant, got %d", len(grants))
	}
	if grants[0].Module != catalog.ModuleProducts || grants[0].Action != string(catalog.ActionManage) {
		t.Fatalf("grant mismatch: %+v", grants[0])
	}
}
