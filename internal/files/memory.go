package files

import (
	"context"
	"sort"
	"sync"

	"github.com/caseforge/dossier/pkg/pagination"
	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded in-memory Repository used by unit
// tests and database-free deployments.
type MemoryRepository struct {
	mu    sync.RWMutex
	files map[uuid.UUID]File
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{files: make(map[uuid.UUID]File)}
}

func (m *MemoryRepository) Insert(ctx context.Context, file *File) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[file.ID] = *file
	return nil
}

func (m *MemoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, ok := m.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &file, nil
}

func (m *MemoryRepository) List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[File], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	page.Normalize(pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})

	list := make([]File, 0, len(m.files))
	for _, file := range m.files {
		list = append(list, file)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedOn.Equal(list[j].CreatedOn) {
			return list[i].ID.String() > list[j].ID.String()
		}
		return list[i].CreatedOn.After(list[j].CreatedOn)
	})

	start := page.Offset()
	if start > len(list) {
		start = len(list)
	}
	end := start + page.PageSize
	if end > len(list) {
		end = len(list)
	}

	result := pagination.NewPageResult(list[start:end], len(list), page.Page, page.PageSize)
	return &result, nil
}

func (m *MemoryRepository) Remove(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[id]; !ok {
		return ErrNotFound
	}
	delete(m.files, id)
	return nil
}
