package files

import (
	"context"

	"github.com/caseforge/dossier/pkg/pagination"
	"github.com/google/uuid"
)

// System defines the file store operations.
type System interface {
	// Upload stores a blob and its metadata. PDF uploads get their page
	// count recorded. Fails with ErrTooLarge when the content exceeds the
	// configured limit.
	Upload(ctx context.Context, principal string, cmd UploadCommand) (*File, error)

	// FindByID returns one file's metadata.
	FindByID(ctx context.Context, principal string, id uuid.UUID) (*File, error)

	// Download returns a file's metadata together with its content.
	Download(ctx context.Context, principal string, id uuid.UUID) (*File, []byte, error)

	// List returns a page of file metadata, newest first.
	List(ctx context.Context, principal string, page pagination.PageRequest) (*pagination.PageResult[File], error)

	// Delete removes a file and its blob. Fails with ErrInUse while any
	// document still references the file.
	Delete(ctx context.Context, principal string, id uuid.UUID) error
}

// Repository is the metadata storage port for files.
type Repository interface {
	Insert(ctx context.Context, file *File) error
	FindByID(ctx context.Context, id uuid.UUID) (*File, error)
	List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[File], error)
	Remove(ctx context.Context, id uuid.UUID) error
}

// ReferenceCounter reports how many documents reference a file. The document
// store provides the production implementation.
type ReferenceCounter interface {
	CountByRelatedFile(ctx context.Context, fileID uuid.UUID) (int64, error)
}
