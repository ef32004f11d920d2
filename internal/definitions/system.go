package definitions

import (
	"context"

	"github.com/caseforge/dossier/pkg/pagination"
)

// System defines the schema registry operations.
type System interface {
	// Deploy validates and stores a schema as a new or existing version.
	// Deployment of identical content is idempotent unless cmd.Force is set,
	// which always creates a new version.
	Deploy(ctx context.Context, principal string, cmd DeployCommand) (*DeployResult, error)

	// DeployAll deploys every schema file in dir independently, collecting
	// per-file outcomes. A failing file never aborts the batch.
	DeployAll(ctx context.Context, principal, dir string, readOnly, force bool) (*DeployReport, error)

	// FindLatest returns the definition with the highest version for name.
	FindLatest(ctx context.Context, name string) (*Definition, error)

	// FindByNameAndVersion returns one specific definition version.
	FindByNameAndVersion(ctx context.Context, name string, version int64) (*Definition, error)

	// ListVersions returns the deployed version numbers for name, ascending.
	ListVersions(ctx context.Context, name string) ([]int64, error)

	// List returns a page of the latest version of every definition.
	List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Definition], error)

	// Remove deletes all versions of name. It fails with ErrInUse while any
	// document references any version; cascading is a caller concern.
	Remove(ctx context.Context, principal, name string) error
}

// Repository is the storage port for definitions.
type Repository interface {
	// Insert persists a new definition version. Returns ErrDuplicate when
	// (name, version) already exists.
	Insert(ctx context.Context, def *Definition) error

	// FindLatest returns the highest version for name, or ErrNotFound.
	FindLatest(ctx context.Context, name string) (*Definition, error)

	// FindByNameAndVersion returns one version, or ErrNotFound.
	FindByNameAndVersion(ctx context.Context, name string, version int64) (*Definition, error)

	// FindAllByName returns every version for name in ascending version order.
	FindAllByName(ctx context.Context, name string) ([]Definition, error)

	// List returns a page of the latest version of every definition name.
	List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Definition], error)

	// RemoveByName deletes all versions of name. Returns ErrNotFound when
	// no version exists.
	RemoveByName(ctx context.Context, name string) error
}

// ReferenceCounter reports how many documents reference a definition name.
// The document store provides the production implementation.
type ReferenceCounter interface {
	CountByDefinitionName(ctx context.Context, name string) (int64, error)
}
