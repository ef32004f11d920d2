package definitions

import (
	"context"
	"sort"
	"sync"

	"github.com/caseforge/dossier/pkg/pagination"
)

// MemoryRepository is a mutex-guarded in-memory Repository used by unit
// tests and database-free deployments.
type MemoryRepository struct {
	mu   sync.RWMutex
	defs map[string][]Definition // name -> versions ascending
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{defs: make(map[string][]Definition)}
}

func (m *MemoryRepository) Insert(ctx context.Context, def *Definition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.defs[def.Name] {
		if existing.Version == def.Version {
			return ErrDuplicate
		}
	}

	m.defs[def.Name] = append(m.defs[def.Name], *def)
	sort.Slice(m.defs[def.Name], func(i, j int) bool {
		return m.defs[def.Name][i].Version < m.defs[def.Name][j].Version
	})
	return nil
}

func (m *MemoryRepository) FindLatest(ctx context.Context, name string) (*Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := m.defs[name]
	if len(versions) == 0 {
		return nil, ErrNotFound
	}

	latest := versions[len(versions)-1]
	return &latest, nil
}

func (m *MemoryRepository) FindByNameAndVersion(ctx context.Context, name string, version int64) (*Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, def := range m.defs[name] {
		if def.Version == version {
			found := def
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) FindAllByName(ctx context.Context, name string) ([]Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]Definition(nil), m.defs[name]...), nil
}

func (m *MemoryRepository) List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Definition], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	page.Normalize(pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})

	names := make([]string, 0, len(m.defs))
	for name := range m.defs {
		names = append(names, name)
	}
	sort.Strings(names)

	latest := make([]Definition, 0, len(names))
	for _, name := range names {
		versions := m.defs[name]
		latest = append(latest, versions[len(versions)-1])
	}

	start := page.Offset()
	if start > len(latest) {
		start = len(latest)
	}
	end := start + page.PageSize
	if end > len(latest) {
		end = len(latest)
	}

	result := pagination.NewPageResult(latest[start:end], len(latest), page.Page, page.PageSize)
	return &result, nil
}

func (m *MemoryRepository) RemoveByName(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.defs[name]) == 0 {
		return ErrNotFound
	}
	delete(m.defs, name)
	return nil
}
