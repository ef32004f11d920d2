package snapshots

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/caseforge/dossier/pkg/pagination"
	"github.com/caseforge/dossier/pkg/query"
	"github.com/caseforge/dossier/pkg/repository"
	"github.com/google/uuid"
)

var projection = query.NewProjectionMap("public", "document_snapshots", "ds").
	Project("id", "Id").
	Project("document_id", "DocumentID").
	Project("definition_name", "DefinitionName").
	Project("definition_version", "DefinitionVersion").
	Project("sequence", "Sequence").
	Project("content", "Content").
	Project("created_by", "CreatedBy").
	Project("created_on", "CreatedOn")

func scanSnapshot(s repository.Scanner) (Snapshot, error) {
	var snap Snapshot
	err := s.Scan(
		&snap.ID,
		&snap.DocumentID,
		&snap.DefinitionName,
		&snap.DefinitionVersion,
		&snap.Sequence,
		&snap.Content,
		&snap.CreatedBy,
		&snap.CreatedOn,
	)
	return snap, err
}

type pgRepository struct {
	db         *sql.DB
	pagination pagination.Config
}

// NewRepository creates the Postgres-backed snapshot repository.
func NewRepository(db *sql.DB, pagination pagination.Config) Repository {
	return &pgRepository{db: db, pagination: pagination}
}

func (r *pgRepository) Insert(ctx context.Context, snap *Snapshot) error {
	q := `INSERT INTO document_snapshots
		(id, document_id, definition_name, definition_version, sequence, content, created_by, created_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, q,
		snap.ID, snap.DocumentID, snap.DefinitionName, snap.DefinitionVersion,
		snap.Sequence, []byte(snap.Content), snap.CreatedBy, snap.CreatedOn,
	)
	return repository.MapError(err, ErrNotFound, ErrNotFound)
}

func (r *pgRepository) FindByID(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	q, args := query.NewBuilder(projection).BuildSingle("Id", id)

	snap, err := repository.QueryOne(ctx, r.db, q, args, scanSnapshot)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &snap, nil
}

func (r *pgRepository) Query(ctx context.Context, filter QueryFilter, page pagination.PageRequest) (*pagination.PageResult[Snapshot], error) {
	page.Normalize(r.pagination)

	b := query.NewBuilder(projection, query.SortField{Field: "CreatedOn", Descending: true})
	if filter.DefinitionName != "" {
		b.WhereEquals("DefinitionName", filter.DefinitionName)
	}
	if filter.DocumentID != nil {
		b.WhereEquals("DocumentID", *filter.DocumentID)
	}
	if filter.From != nil {
		b.WhereGTE("CreatedOn", *filter.From)
	}
	if filter.To != nil {
		b.WhereLTE("CreatedOn", *filter.To)
	}
	b.OrderByFields(page.Sort)

	countQ, countArgs := b.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count snapshots: %w", err)
	}

	q, args := b.BuildPage(page.Page, page.PageSize)
	snaps, err := repository.QueryMany(ctx, r.db, q, args, scanSnapshot)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}

	result := pagination.NewPageResult(snaps, total, page.Page, page.PageSize)
	return &result, nil
}
