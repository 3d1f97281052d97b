package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-process audit store used in tests and
// standalone mode.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []Entry
	nextID  int64
}

// NewMemoryRepository constructs an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1}
}

// InsertEntry appends a record.
func (m *MemoryRepository) InsertEntry(ctx context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = m.nextID
	m.nextID++
	m.entries = append(m.entries, entry)
	return nil
}

// ListEntries returns matching entries newest first.
func (m *MemoryRepository) ListEntries(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []Entry
	for _, entry := range m.entries {
		if filters.Actor != "" && entry.Actor != filters.Actor {
			continue
		}
		if filters.Entity != "" && entry.Entity != filters.Entity {
			continue
		}
		if filters.Action != "" && entry.Action != filters.Action {
			continue
		}
		if !filters.From.IsZero() && entry.At.Before(filters.From) {
			continue
		}
		if !filters.To.IsZero() && !entry.At.Before(filters.To) {
			continue
		}
		matched = append(matched, entry)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].At.After(matched[j].At) })

	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// PruneBefore deletes entries older than the cutoff.
func (m *MemoryRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	var removed int64
	for _, entry := range m.entries {
		if entry.At.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	m.entries = kept
	return removed, nil
}

var _ RepositoryPort = (*MemoryRepository)(nil)
