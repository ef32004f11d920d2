package files

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/caseforge/dossier/pkg/pagination"
	"github.com/caseforge/dossier/pkg/query"
	"github.com/caseforge/dossier/pkg/repository"
	"github.com/google/uuid"
)

var projection = query.NewProjectionMap("public", "files", "f").
	Project("id", "Id").
	Project("name", "Name").
	Project("content_type", "ContentType").
	Project("size", "Size").
	Project("page_count", "PageCount").
	Project("uploaded_by", "UploadedBy").
	Project("created_on", "CreatedOn")

func scanFile(s repository.Scanner) (File, error) {
	var f File
	err := s.Scan(
		&f.ID,
		&f.Name,
		&f.ContentType,
		&f.Size,
		&f.PageCount,
		&f.UploadedBy,
		&f.CreatedOn,
	)
	return f, err
}

type pgRepository struct {
	db         *sql.DB
	pagination pagination.Config
}

// NewRepository creates the Postgres-backed file metadata repository.
func NewRepository(db *sql.DB, pagination pagination.Config) Repository {
	return &pgRepository{db: db, pagination: pagination}
}

func (r *pgRepository) Insert(ctx context.Context, file *File) error {
	q := `INSERT INTO files (id, name, content_type, size, page_count, uploaded_by, created_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, q,
		file.ID, file.Name, file.ContentType, file.Size, file.PageCount, file.UploadedBy, file.CreatedOn,
	)
	return repository.MapError(err, ErrNotFound, ErrNotFound)
}

func (r *pgRepository) FindByID(ctx context.Context, id uuid.UUID) (*File, error) {
	q, args := query.NewBuilder(projection).BuildSingle("Id", id)

	file, err := repository.QueryOne(ctx, r.db, q, args, scanFile)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &file, nil
}

func (r *pgRepository) List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[File], error) {
	page.Normalize(r.pagination)

	b := query.NewBuilder(projection, query.SortField{Field: "CreatedOn", Descending: true})
	b.WhereSearch(page.Search, "Name")
	b.OrderByFields(page.Sort)

	countQ, countArgs := b.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count files: %w", err)
	}

	q, args := b.BuildPage(page.Page, page.PageSize)
	list, err := repository.QueryMany(ctx, r.db, q, args, scanFile)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}

	result := pagination.NewPageResult(list, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *pgRepository) Remove(ctx context.Context, id uuid.UUID) error {
	q := `DELETE FROM files WHERE id = $1`

	err := repository.ExecExpectOne(ctx, r.db, q, id)
	return repository.MapError(err, ErrNotFound, ErrNotFound)
}
