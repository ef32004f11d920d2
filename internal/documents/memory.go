package documents

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/caseforge/dossier/pkg/pagination"
	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded in-memory Repository used by unit
// tests and database-free deployments. Modify callbacks run under the
// repository lock, so concurrent modifications of a document serialize.
type MemoryRepository struct {
	mu    sync.Mutex
	docs  map[uuid.UUID]*Document
	audit map[uuid.UUID][]AuditEntry
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		docs:  make(map[uuid.UUID]*Document),
		audit: make(map[uuid.UUID][]AuditEntry),
	}
}

func (m *MemoryRepository) Insert(ctx context.Context, doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.docs {
		if existing.DefinitionName == doc.DefinitionName && existing.Sequence == doc.Sequence {
			return ErrDuplicate
		}
	}

	m.docs[doc.ID] = cloneDocument(doc)
	return nil
}

func (m *MemoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (m *MemoryRepository) Modify(ctx context.Context, id uuid.UUID, fn func(doc *Document) (*AuditEntry, error)) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}

	working := cloneDocument(doc)
	entry, err := fn(working)
	if err != nil {
		if errors.Is(err, errUnchanged) {
			return cloneDocument(doc), nil
		}
		return nil, err
	}

	m.docs[id] = working
	if entry != nil {
		m.audit[id] = append(m.audit[id], *entry)
	}
	return cloneDocument(working), nil
}

func (m *MemoryRepository) List(ctx context.Context, filter ListFilter, page pagination.PageRequest) (*pagination.PageResult[Document], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	page.Normalize(pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})

	matches := make([]Document, 0, len(m.docs))
	for _, doc := range m.docs {
		if filter.DefinitionName != "" && doc.DefinitionName != filter.DefinitionName {
			continue
		}
		if filter.AssigneeID != nil && (doc.AssigneeID == nil || *doc.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if filter.CreatedBy != "" && doc.CreatedBy != filter.CreatedBy {
			continue
		}
		matches = append(matches, *cloneDocument(doc))
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedOn.Equal(matches[j].CreatedOn) {
			return matches[i].Sequence > matches[j].Sequence
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

func (m *MemoryRepository) AuditLog(ctx context.Context, id uuid.UUID) ([]AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]AuditEntry(nil), m.audit[id]...), nil
}

func (m *MemoryRepository) CountByDefinitionName(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, doc := range m.docs {
		if doc.DefinitionName == name {
			count++
		}
	}
	return count, nil
}

func (m *MemoryRepository) CountByRelatedFile(ctx context.Context, fileID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, doc := range m.docs {
		if doc.HasRelatedFile(fileID) {
			count++
		}
	}
	return count, nil
}

func cloneDocument(doc *Document) *Document {
	clone := *doc
	clone.Content = append(json.RawMessage(nil), doc.Content...)
	clone.RelatedFileIDs = append([]uuid.UUID(nil), doc.RelatedFileIDs...)
	if doc.AssigneeID != nil {
		id := *doc.AssigneeID
		clone.AssigneeID = &id
	}
	if doc.AssigneeName != nil {
		name := *doc.AssigneeName
		clone.AssigneeName = &name
	}
	return &clone
}
