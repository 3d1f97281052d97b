package roles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shoebox/backoffice/internal/catalog"
	"github.com/shoebox/backoffice/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context, filters shared.ListFilters) ([]Role, int, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, role Role) (Role, error)
	UpdateRole(ctx context.Context, role Role) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
}

// PermissionResolver resolves catalog permission ids into full snapshots.
// Satisfied by the catalog service.
type PermissionResolver interface {
	Resolve(ctx context.Context, ids []int64) ([]catalog.Permission, error)
	List(ctx context.Context) ([]catalog.Permission, error)
}

// AssignmentCounter reports how many directory users currently reference a
// role. The registry has no direct visibility into the user directory; the
// composition root wires this port to it so delete-time referential checks
// stay inside the registry boundary.
type AssignmentCounter interface {
	CountUsersWithRole(ctx context.Context, roleID int64) (int, error)
}

// CreateRoleInput carries fields for a new role.
type CreateRoleInput struct {
	Name          string
	Description   string
	PermissionIDs []int64
	CreatedBy     string
}

// UpdateRoleInput carries a partial role update. Nil fields are left as-is.
type UpdateRoleInput struct {
	Name          *string
	Description   *string
	PermissionIDs *[]int64
}

// Service handles role registry business logic.
type Service struct {
	repo        RepositoryPort
	permissions PermissionResolver
	assignments AssignmentCounter
	clock       func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, permissions PermissionResolver, assignments AssignmentCounter) *Service {
	return &Service{
		repo:        repo,
		permissions: permissions,
		assignments: assignments,
		clock:       func() time.Time { return time.Now().UTC() },
	}
}

// BindAssignments attaches the assignment counter after construction. The
// registry and the directory reference each other, so the composition root
// closes the loop here.
func (s *Service) BindAssignments(assignments AssignmentCounter) {
	s.assignments = assignments
}

// List returns roles with paging metadata.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Role, shared.Pagination, error) {
	filters = filters.Normalize()
	items, total, err := s.repo.ListRoles(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

// Get fetches a role by id.
func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// Create validates input, snapshots the selected permissions, and stores a
// new custom role. New roles are never default.
func (s *Service) Create(ctx context.Context, input CreateRoleInput) (Role, error) {
	name := strings.TrimSpace(input.Name)
	description := strings.TrimSpace(input.Description)
	if name == "" {
		return Role{}, fmt.Errorf("role name is required: %w", shared.ErrValidation)
	}
	if description == "" {
		return Role{}, fmt.Errorf("role description is required: %w", shared.ErrValidation)
	}
	if len(input.PermissionIDs) == 0 {
		return Role{}, fmt.Errorf("role needs at least one permission: %w", shared.ErrValidation)
	}

	perms, err := s.permissions.Resolve(ctx, input.PermissionIDs)
	if err != nil {
		return Role{}, err
	}

	now := s.clock()
	role := Role{
		Name:        name,
		Description: description,
		Permissions: perms,
		IsDefault:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   input.CreatedBy,
	}
	return s.repo.CreateRole(ctx, role)
}

// Update merges the provided fields into the stored role and bumps
// updated_at. Permission selections are re-snapshotted from the catalog.
func (s *Service) Update(ctx context.Context, id int64, input UpdateRoleInput) (Role, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Role{}, fmt.Errorf("role name is required: %w", shared.ErrValidation)
		}
		role.Name = name
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return Role{}, fmt.Errorf("role description is required: %w", shared.ErrValidation)
		}
		role.Description = description
	}
	if input.PermissionIDs != nil {
		if len(*input.PermissionIDs) == 0 {
			return Role{}, fmt.Errorf("role needs at least one permission: %w", shared.ErrValidation)
		}
		perms, err := s.permissions.Resolve(ctx, *input.PermissionIDs)
		if err != nil {
			return Role{}, err
		}
		role.Permissions = perms
	}

	role.UpdatedAt = s.clock()
	return s.repo.UpdateRole(ctx, role)
}

// Delete removes a role. Default roles are protected, and a role still
// embedded as any user's active role (matched by id, not snapshot equality)
// cannot be removed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.IsDefault {
		return fmt.Errorf("role %q: %w", role.Name, shared.ErrProtectedRole)
	}
	if s.assignments != nil {
		count, err := s.assignments.CountUsersWithRole(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("role %q has %d assigned users: %w", role.Name, count, shared.ErrRoleInUse)
		}
	}
	return s.repo.DeleteRole(ctx, id)
}

// Selection returns the catalog grouped by module with full/partial markers
// for the given role's permission set. The role and the catalog are fetched
// concurrently; they live in independent stores.
func (s *Service) Selection(ctx context.Context, id int64) ([]catalog.ModuleGroup, error) {
	var (
		role Role
		all  []catalog.Permission
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		role, err = s.repo.GetRole(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		all, err = s.permissions.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return catalog.GroupBySelection(all, role.Permissions), nil
}
