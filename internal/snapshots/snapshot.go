// Package snapshots keeps immutable point-in-time copies of document state.
// A snapshot is recorded after committed content and assignment changes and
// can be captured on demand; the ledger is append-only.
package snapshots

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Snapshot is one frozen document state.
type Snapshot struct {
	ID                uuid.UUID       `json:"id"`
	DocumentID        uuid.UUID       `json:"document_id"`
	DefinitionName    string          `json:"definition_name"`
	DefinitionVersion int64           `json:"definition_version"`
	Sequence          int64           `json:"sequence"`
	Content           json.RawMessage `json:"content"`
	CreatedBy         string          `json:"created_by"`
	CreatedOn         time.Time       `json:"created_on"`
}

// QueryFilter narrows a snapshot query. All set fields must match;
// zero-valued fields do not filter.
type QueryFilter struct {
	DefinitionName string     `json:"definition_name,omitempty"`
	DocumentID     *uuid.UUID `json:"document_id,omitempty"`
	From           *time.Time `json:"from,omitempty"`
	To             *time.Time `json:"to,omitempty"`
}

// CaptureCommand names the document to snapshot on demand.
type CaptureCommand struct {
	DocumentID uuid.UUID `json:"document_id"`
}
