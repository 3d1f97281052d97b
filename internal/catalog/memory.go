package catalog

import (
	"context"
	"sync"
)

// MemoryRepository is an in-process catalog store with injected seed state.
// Used in tests and standalone mode.
type MemoryRepository struct {
	mu    sync.RWMutex
	perms []Permission
}

// NewMemoryRepository constructs a store holding the given permissions.
func NewMemoryRepository(perms []Permission) *MemoryRepository {
	copied := make([]Permission, len(perms))
	copy(copied, perms)
	return &MemoryRepository{perms: copied}
}

// ListPermissions returns the catalog in seeded order.
func (m *MemoryRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Permission, len(m.perms))
	copy(out, m.perms)
	return out, nil
}

// GetPermissionsByIDs fetches permissions matching ids, in seeded order.
func (m *MemoryRepository) GetPermissionsByIDs(ctx context.Context, ids []int64) ([]Permission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []Permission
	for _, p := range m.perms {
		if _, ok := want[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

var _ RepositoryPort = (*MemoryRepository)(nil)
