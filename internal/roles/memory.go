package roles

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shoebox/backoffice/internal/catalog"
	"github.com/shoebox/backoffice/internal/shared"
)

// MemoryRepository is an in-process role store with injected initial state.
// Used in tests and standalone mode.
type MemoryRepository struct {
	mu     sync.RWMutex
	roles  map[int64]Role
	nextID int64
}

// NewMemoryRepository constructs a store seeded with the given roles.
func NewMemoryRepository(seed []Role) *MemoryRepository {
	m := &MemoryRepository{roles: make(map[int64]Role), nextID: 1}
	for _, role := range seed {
		if role.ID == 0 {
			role.ID = m.nextID
		}
		m.roles[role.ID] = cloneRole(role)
		if role.ID >= m.nextID {
			m.nextID = role.ID + 1
		}
	}
	return m
}

// ListRoles returns roles matching the filters plus the total count.
func (m *MemoryRepository) ListRoles(ctx context.Context, filters shared.ListFilters) ([]Role, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []Role
	needle := strings.ToLower(filters.Search)
	for _, role := range m.roles {
		if needle != "" &&
			!strings.Contains(strings.ToLower(role.Name), needle) &&
			!strings.Contains(strings.ToLower(role.Description), needle) {
			continue
		}
		all = append(all, cloneRole(role))
	}
	sortRoles(all, filters)

	total := len(all)
	start := filters.Offset()
	if start > total {
		start = total
	}
	end := start + filters.PerPage
	if filters.PerPage <= 0 || end > total {
		end = total
	}
	return all[start:end], total, nil
}

// GetRole fetches a role by id.
func (m *MemoryRepository) GetRole(ctx context.Context, id int64) (Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	role, ok := m.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
	}
	return cloneRole(role), nil
}

// CreateRole stores a new role under a fresh id.
func (m *MemoryRepository) CreateRole(ctx context.Context, role Role) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.roles {
		if strings.EqualFold(existing.Name, role.Name) {
			return Role{}, fmt.Errorf("role name %q already exists: %w", role.Name, shared.ErrValidation)
		}
	}
	role.ID = m.nextID
	m.nextID++
	m.roles[role.ID] = cloneRole(role)
	return role, nil
}

// UpdateRole replaces the stored role.
func (m *MemoryRepository) UpdateRole(ctx context.Context, role Role) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[role.ID]; !ok {
		return Role{}, fmt.Errorf("role %d: %w", role.ID, shared.ErrNotFound)
	}
	for id, existing := range m.roles {
		if id != role.ID && strings.EqualFold(existing.Name, role.Name) {
			return Role{}, fmt.Errorf("role name %q already exists: %w", role.Name, shared.ErrValidation)
		}
	}
	m.roles[role.ID] = cloneRole(role)
	return role, nil
}

// DeleteRole removes a role by id.
func (m *MemoryRepository) DeleteRole(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[id]; !ok {
		return fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
	}
	delete(m.roles, id)
	return nil
}

func sortRoles(all []Role, filters shared.ListFilters) {
	less := func(a, b Role) bool { return a.ID < b.ID }
	switch filters.SortBy {
	case "name":
		less = func(a, b Role) bool { return a.Name < b.Name }
	case "created_at":
		less = func(a, b Role) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "updated_at":
		less = func(a, b Role) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	}
	sort.SliceStable(all, func(i, j int) bool {
		if filters.SortDir == "desc" {
			return less(all[j], all[i])
		}
		return less(all[i], all[j])
	})
}

func cloneRole(role Role) Role {
	perms := make([]catalog.Permission, len(role.Permissions))
	copy(perms, role.Permissions)
	role.Permissions = perms
	return role
}

var _ RepositoryPort = (*MemoryRepository)(nil)
