// Package documents stores JSON documents conforming to deployed definitions
// and maintains a diff-based audit trail of every content change.
package documents

import (
	"encoding/json"
	"time"

	"github.com/caseforge/dossier/internal/diff"
	"github.com/google/uuid"
)

// Document is a stored JSON document bound to one definition version.
type Document struct {
	ID                uuid.UUID       `json:"id"`
	DefinitionName    string          `json:"definition_name"`
	DefinitionVersion int64           `json:"definition_version"`
	Sequence          int64           `json:"sequence"`
	Content           json.RawMessage `json:"content"`
	AssigneeID        *string         `json:"assignee_id,omitempty"`
	AssigneeName      *string         `json:"assignee_name,omitempty"`
	RelatedFileIDs    []uuid.UUID     `json:"related_file_ids"`
	CreatedBy         string          `json:"created_by"`
	CreatedOn         time.Time       `json:"created_on"`
	ModifiedOn        time.Time       `json:"modified_on"`
}

// HasRelatedFile reports whether fileID is already attached to the document.
func (d *Document) HasRelatedFile(fileID uuid.UUID) bool {
	for _, id := range d.RelatedFileIDs {
		if id == fileID {
			return true
		}
	}
	return false
}

// DefinitionRef addresses a definition by name and optional version.
// Version 0 resolves to the latest deployed version.
type DefinitionRef struct {
	Name    string `json:"name"`
	Version int64  `json:"version"`
}

// CreateCommand contains the data required to create a document.
type CreateCommand struct {
	Definition DefinitionRef   `json:"definition"`
	Content    json.RawMessage `json:"content"`
}

// AssignCommand names the user a document is assigned to.
type AssignCommand struct {
	AssigneeID   string `json:"assignee_id"`
	AssigneeName string `json:"assignee_name"`
}

// AuditEntry is one recorded content change. The patch transforms the
// document content as it was before the change into the content after it.
type AuditEntry struct {
	ID         uuid.UUID  `json:"id"`
	DocumentID uuid.UUID  `json:"document_id"`
	Author     string     `json:"author"`
	OccurredOn time.Time  `json:"occurred_on"`
	Patch      diff.Patch `json:"patch"`
}

// ListFilter narrows a document listing. Zero-valued fields do not filter.
type ListFilter struct {
	DefinitionName string  `json:"definition_name,omitempty"`
	AssigneeID     *string `json:"assignee_id,omitempty"`
	CreatedBy      string  `json:"created_by,omitempty"`
}
