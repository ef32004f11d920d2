package documents

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/caseforge/dossier/pkg/pagination"
	"github.com/google/uuid"
)

// System defines the document store operations.
type System interface {
	// Create validates content against the referenced definition and stores a
	// new document with the next sequence number for the definition name.
	Create(ctx context.Context, principal string, cmd CreateCommand) (*Document, error)

	// Modify replaces the document content after validating it against the
	// definition version the document was created with, recording the change
	// as a patch in the audit trail. Submitting identical content changes
	// nothing and records nothing.
	Modify(ctx context.Context, principal string, id uuid.UUID, content json.RawMessage) (*Document, error)

	// FindByID returns one document.
	FindByID(ctx context.Context, principal string, id uuid.UUID) (*Document, error)

	// List returns a page of documents matching the filter.
	List(ctx context.Context, principal string, filter ListFilter, page pagination.PageRequest) (*pagination.PageResult[Document], error)

	// SetAssignee assigns the document to a user.
	SetAssignee(ctx context.Context, principal string, id uuid.UUID, cmd AssignCommand) (*Document, error)

	// Unassign clears the document's assignee.
	Unassign(ctx context.Context, principal string, id uuid.UUID) (*Document, error)

	// AddRelatedFile attaches a file reference. Attaching an already attached
	// file is a no-op.
	AddRelatedFile(ctx context.Context, principal string, id, fileID uuid.UUID) (*Document, error)

	// RemoveRelatedFile detaches a file reference. Detaching an absent file
	// is a no-op.
	RemoveRelatedFile(ctx context.Context, principal string, id, fileID uuid.UUID) (*Document, error)

	// AuditLog returns the document's recorded content changes in the order
	// they occurred.
	AuditLog(ctx context.Context, principal string, id uuid.UUID) ([]AuditEntry, error)
}

// errUnchanged aborts a Modify callback without writing. The repository
// treats it as success and returns the document as it was.
var errUnchanged = errors.New("document unchanged")

// Repository is the storage port for documents and their audit trail.
type Repository interface {
	// Insert persists a new document. Returns ErrDuplicate when the
	// (definition name, sequence) pair is already taken.
	Insert(ctx context.Context, doc *Document) error

	// FindByID returns one document, or ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)

	// Modify loads the document, applies fn to it under an exclusive
	// per-document lock, and writes the result back together with the audit
	// entry fn returned, all atomically. A nil entry writes the document
	// without an audit row. When fn returns errUnchanged nothing is written
	// and the unmodified document is returned.
	Modify(ctx context.Context, id uuid.UUID, fn func(doc *Document) (*AuditEntry, error)) (*Document, error)

	// List returns a page of documents matching the filter.
	List(ctx context.Context, filter ListFilter, page pagination.PageRequest) (*pagination.PageResult[Document], error)

	// AuditLog returns the audit entries for a document, oldest first.
	AuditLog(ctx context.Context, id uuid.UUID) ([]AuditEntry, error)

	// CountByDefinitionName reports how many documents reference a
	// definition name, any version.
	CountByDefinitionName(ctx context.Context, name string) (int64, error)

	// CountByRelatedFile reports how many documents reference a file.
	CountByRelatedFile(ctx context.Context, fileID uuid.UUID) (int64, error)
}

// Capturer records a point-in-time snapshot after a document mutation
// commits. Content and timestamp are the mutation's committed state; the
// capturer must not read the document again, a concurrent writer may have
// moved it on. The snapshot ledger provides the production implementation.
type Capturer interface {
	Capture(ctx context.Context, documentID uuid.UUID, content json.RawMessage, author string, at time.Time) error
}

// NopCapturer discards capture requests.
type NopCapturer struct{}

func (NopCapturer) Capture(ctx context.Context, documentID uuid.UUID, content json.RawMessage, author string, at time.Time) error {
	return nil
}
