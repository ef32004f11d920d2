package definitions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/caseforge/dossier/pkg/pagination"
	"github.com/caseforge/dossier/pkg/query"
	"github.com/caseforge/dossier/pkg/repository"
)

var projection = query.NewProjectionMap("public", "document_definitions", "dd").
	Project("id", "Id").
	Project("name", "Name").
	Project("version", "Version").
	Project("schema", "Schema").
	Project("read_only", "ReadOnly").
	Project("created_on", "CreatedOn")

func scanDefinition(s repository.Scanner) (Definition, error) {
	var d Definition
	err := s.Scan(
		&d.ID,
		&d.Name,
		&d.Version,
		&d.Schema,
		&d.ReadOnly,
		&d.CreatedOn,
	)
	return d, err
}

type pgRepository struct {
	db         *sql.DB
	pagination pagination.Config
}

// NewRepository creates the Postgres-backed definition repository.
func NewRepository(db *sql.DB, pagination pagination.Config) Repository {
	return &pgRepository{db: db, pagination: pagination}
}

func (r *pgRepository) Insert(ctx context.Context, def *Definition) error {
	q := `INSERT INTO document_definitions (id, name, version, schema, read_only, created_on)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, q, def.ID, def.Name, def.Version, []byte(def.Schema), def.ReadOnly, def.CreatedOn)
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (r *pgRepository) FindLatest(ctx context.Context, name string) (*Definition, error) {
	q := fmt.Sprintf(
		"SELECT %s FROM %s WHERE dd.name = $1 ORDER BY dd.version DESC LIMIT 1",
		projection.Columns(), projection.Table(),
	)

	def, err := repository.QueryOne(ctx, r.db, q, []any{name}, scanDefinition)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &def, nil
}

func (r *pgRepository) FindByNameAndVersion(ctx context.Context, name string, version int64) (*Definition, error) {
	q := fmt.Sprintf(
		"SELECT %s FROM %s WHERE dd.name = $1 AND dd.version = $2",
		projection.Columns(), projection.Table(),
	)

	def, err := repository.QueryOne(ctx, r.db, q, []any{name, version}, scanDefinition)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &def, nil
}

func (r *pgRepository) FindAllByName(ctx context.Context, name string) ([]Definition, error) {
	q, args := query.
		NewBuilder(projection, query.SortField{Field: "Version"}).
		WhereEquals("Name", name).
		BuildSelect()

	return repository.QueryMany(ctx, r.db, q, args, scanDefinition)
}

func (r *pgRepository) List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Definition], error) {
	page.Normalize(r.pagination)

	countQ := `SELECT COUNT(DISTINCT name) FROM public.document_definitions`
	var total int
	if err := r.db.QueryRowContext(ctx, countQ).Scan(&total); err != nil {
		return nil, fmt.Errorf("count definitions: %w", err)
	}

	q := fmt.Sprintf(
		`SELECT %s FROM %s
		WHERE dd.version = (SELECT MAX(version) FROM public.document_definitions WHERE name = dd.name)
		ORDER BY dd.name ASC LIMIT %d OFFSET %d`,
		projection.Columns(), projection.Table(), page.PageSize, page.Offset(),
	)

	defs, err := repository.QueryMany(ctx, r.db, q, nil, scanDefinition)
	if err != nil {
		return nil, fmt.Errorf("query definitions: %w", err)
	}

	result := pagination.NewPageResult(defs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *pgRepository) RemoveByName(ctx context.Context, name string) error {
	q := `DELETE FROM public.document_definitions WHERE name = $1`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, q, name)
	})
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}
