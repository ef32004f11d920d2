// Package events carries lifecycle notifications out of the document core.
// Publication is fire-and-forget: sinks run after the triggering operation
// has committed, and their failures never surface to the caller.
package events

import (
	"context"
	"time"

	"github.com/caseforge/dossier/internal/diff"
	"github.com/google/uuid"
)

// Kind identifies a lifecycle event type.
type Kind string

// Event kinds emitted by the document core.
const (
	DefinitionDeployed Kind = "definition.deployed"
	DocumentCreated    Kind = "document.created"
	DocumentModified   Kind = "document.modified"
	DocumentAssigned   Kind = "document.assigned"
	DocumentUnassigned Kind = "document.unassigned"
	RelatedFileAdded   Kind = "document.file-added"
	RelatedFileRemoved Kind = "document.file-removed"
	SnapshotCaptured   Kind = "snapshot.captured"
)

// Event is a lifecycle notification. Fields beyond Kind, OccurredOn, and
// Author are populated per kind; DocumentModified additionally carries the
// audit patch.
type Event struct {
	Kind              Kind       `json:"kind"`
	OccurredOn        time.Time  `json:"occurred_on"`
	Author            string     `json:"author"`
	DocumentID        *uuid.UUID `json:"document_id,omitempty"`
	DefinitionName    string     `json:"definition_name,omitempty"`
	DefinitionVersion int64      `json:"definition_version,omitempty"`
	Sequence          int64      `json:"sequence,omitempty"`
	Assignee          *string    `json:"assignee,omitempty"`
	FileID            *uuid.UUID `json:"file_id,omitempty"`
	SnapshotID        *uuid.UUID `json:"snapshot_id,omitempty"`
	Patch             diff.Patch `json:"patch,omitempty"`
}

// Sink delivers events to an external consumer.
type Sink interface {
	Publish(ctx context.Context, e Event) error
}

// Publisher is the narrow fan-out interface the core depends on. Publish
// never blocks the caller and never fails.
type Publisher interface {
	Publish(e Event)
}
