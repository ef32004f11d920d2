package snapshots

import (
	"context"
	"encoding/json"
	"time"

	"github.com/caseforge/dossier/internal/documents"
	"github.com/caseforge/dossier/pkg/pagination"
	"github.com/google/uuid"
)

// System defines the snapshot ledger operations.
type System interface {
	// Capture freezes the current state of a document into a new snapshot.
	// Fails with ErrDocumentNotFound when the document does not exist.
	Capture(ctx context.Context, principal string, documentID uuid.UUID) (*Snapshot, error)

	// Record persists a snapshot of already-committed document state. The
	// content and timestamp come from the mutation that triggered the
	// capture, not from a fresh read, so a writer committing concurrently
	// cannot bleed into the snapshot. Fails with ErrDocumentNotFound when
	// the document does not exist.
	Record(ctx context.Context, author string, documentID uuid.UUID, content json.RawMessage, at time.Time) (*Snapshot, error)

	// FindByID returns one snapshot.
	FindByID(ctx context.Context, principal string, id uuid.UUID) (*Snapshot, error)

	// Query returns a page of snapshots matching the filter, newest first.
	Query(ctx context.Context, principal string, filter QueryFilter, page pagination.PageRequest) (*pagination.PageResult[Snapshot], error)
}

// Repository is the storage port for the append-only snapshot ledger.
type Repository interface {
	Insert(ctx context.Context, snap *Snapshot) error
	FindByID(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	Query(ctx context.Context, filter QueryFilter, page pagination.PageRequest) (*pagination.PageResult[Snapshot], error)
}

// DocumentSource reads the document state to freeze. The document store's
// repository satisfies it.
type DocumentSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*documents.Document, error)
}
