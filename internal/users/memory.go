package users

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shoebox/backoffice/internal/shared"
)

// MemoryRepository is an in-process user store with injected initial state.
// Used in tests and standalone mode.
type MemoryRepository struct {
	mu     sync.RWMutex
	users  map[int64]User
	nextID int64
}

// NewMemoryRepository constructs a store seeded with the given users.
func NewMemoryRepository(seed []User) *MemoryRepository {
	m := &MemoryRepository{users: make(map[int64]User), nextID: 1}
	for _, user := range seed {
		if user.ID == 0 {
			user.ID = m.nextID
		}
		m.users[user.ID] = user
		if user.ID >= m.nextID {
			m.nextID = user.ID + 1
		}
	}
	return m
}

// ListUsers returns users matching the filters plus the matching total.
func (m *MemoryRepository) ListUsers(ctx context.Context, filters shared.ListFilters) ([]User, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []User
	needle := strings.ToLower(filters.Search)
	for _, user := range m.users {
		if needle != "" &&
			!strings.Contains(strings.ToLower(user.FirstName), needle) &&
			!strings.Contains(strings.ToLower(user.LastName), needle) &&
			!strings.Contains(strings.ToLower(user.Email), needle) {
			continue
		}
		all = append(all, user)
	}
	sortUsers(all, filters)

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

// GetUser fetches a user by id.
func (m *MemoryRepository) GetUser(ctx context.Context, id int64) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return User{}, fmt.Errorf("user %d: %w", id, shared.ErrNotFound)
	}
	return user, nil
}

// GetUserByEmail fetches a user by email, case-insensitively.
func (m *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return User{}, fmt.Errorf("user %q: %w", email, shared.ErrNotFound)
}

// CreateUser stores a new account under a fresh id.
func (m *MemoryRepository) CreateUser(ctx context.Context, user User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return User{}, fmt.Errorf("email %q already registered: %w", user.Email, shared.ErrValidation)
		}
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	return user, nil
}

// UpdateUser replaces the stored account.
func (m *MemoryRepository) UpdateUser(ctx context.Context, user User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return User{}, fmt.Errorf("user %d: %w", user.ID, shared.ErrNotFound)
	}
	for id, existing := range m.users {
		if id != user.ID && strings.EqualFold(existing.Email, user.Email) {
			return User{}, fmt.Errorf("email %q already registered: %w", user.Email, shared.ErrValidation)
		}
	}
	m.users[user.ID] = user
	return user, nil
}

// DeleteUser removes a user by id.
func (m *MemoryRepository) DeleteUser(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("user %d: %w", id, shared.ErrNotFound)
	}
	delete(m.users, id)
	return nil
}

// CountUsersWithRole reports how many users hold the role id.
func (m *MemoryRepository) CountUsersWithRole(ctx context.Context, roleID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, user := range m.users {
		if user.Role.ID == roleID {
			count++
		}
	}
	return count, nil
}

func sortUsers(all []User, filters shared.ListFilters) {
	less := func(a, b User) bool { return a.ID < b.ID }
	switch filters.SortBy {
	case "first_name":
		less = func(a, b User) bool { return a.FirstName < b.FirstName }
	case "last_name":
		less = func(a, b User) bool { return a.LastName < b.LastName }
	case "email":
		less = func(a, b User) bool { return a.Email < b.Email }
	case "status":
		less = func(a, b User) bool { return a.Status < b.Status }
	case "created_at":
		less = func(a, b User) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "updated_at":
		less = func(a, b User) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	}
	sort.SliceStable(all, func(i, j int) bool {
		if filters.SortDir == "desc" {
			return less(all[j], all[i])
		}
		return less(all[i], all[j])
	})
}

var _ RepositoryPort = (*MemoryRepository)(nil)
