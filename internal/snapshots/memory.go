package snapshots

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/caseforge/dossier/pkg/pagination"
	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded in-memory Repository used by unit
// tests and database-free deployments.
type MemoryRepository struct {
	mu    sync.RWMutex
	snaps map[uuid.UUID]Snapshot
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{snaps: make(map[uuid.UUID]Snapshot)}
}

func (m *MemoryRepository) Insert(ctx context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *snap
	stored.Content = append(json.RawMessage(nil), snap.Content...)
	m.snaps[snap.ID] = stored
	return nil
}

func (m *MemoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snaps[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &snap, nil
}

func (m *MemoryRepository) Query(ctx context.Context, filter QueryFilter, page pagination.PageRequest) (*pagination.PageResult[Snapshot], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	page.Normalize(pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})

	matches := make([]Snapshot, 0, len(m.snaps))
	for _, snap := range m.snaps {
		if filter.DefinitionName != "" && snap.DefinitionName != filter.DefinitionName {
			continue
		}
		if filter.DocumentID != nil && snap.DocumentID != *filter.DocumentID {
			continue
		}
		if filter.From != nil && snap.CreatedOn.Before(*filter.From) {
			continue
		}
		if filter.To != nil && snap.CreatedOn.After(*filter.To) {
			continue
		}
		matches = append(matches, snap)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedOn.Equal(matches[j].CreatedOn) {
			return matches[i].ID.String() > matches[j].ID.String()
		}
		return matches[i].CreatedOn.After(matches[j].CreatedOn)
	})

	start := page.Offset()
	if start > len(matches) {
		start = len(matches)
	}
	end := start + page.PageSize
	if end > len(matches) {
		end = len(matches)
	}

	result := pagination.NewPageResult(matches[start:end], len(matches), page.Page, page.PageSize)
	return &result, nil
}
