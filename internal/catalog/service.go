package catalog

import (
	"context"
	"fmt"

	"github.com/shoebox/backoffice/internal/shared"
)

// RepositoryPort defines data access methods for the permission catalog.
type RepositoryPort interface {
	ListPermissions(ctx context.Context) ([]Permission, error)
	GetPermissionsByIDs(ctx context.Context, ids []int64) ([]Permission, error)
}

// Service exposes read-only catalog operations. The catalog is seeded once
// and has no mutation API.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns the catalog in canonical order.
func (s *Service) List(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// Grouped returns the catalog partitioned by module.
func (s *Service) Grouped(ctx context.Context) ([]ModuleGroup, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	return GroupByModule(perms), nil
}

// Resolve fetches the permissions for the given ids, failing if any id does
// not exist in the catalog.
func (s *Service) Resolve(ctx context.Context, ids []int64) ([]Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	perms, err := s.repo.GetPermissionsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(perms) != len(dedupe(ids)) {
		return nil, fmt.Errorf("catalog: unknown permission id: %w", shared.ErrNotFound)
	}
	return perms, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
