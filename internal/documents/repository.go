package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/caseforge/dossier/pkg/pagination"
	"github.com/caseforge/dossier/pkg/query"
	"github.com/caseforge/dossier/pkg/repository"
	"github.com/google/uuid"
)

var projection = query.NewProjectionMap("public", "documents", "d").
	Project("id", "Id").
	Project("definition_name", "DefinitionName").
	Project("definition_version", "DefinitionVersion").
	Project("sequence", "Sequence").
	Project("content", "Content").
	Project("assignee_id", "AssigneeID").
	Project("assignee_name", "AssigneeName").
	Project("related_file_ids", "RelatedFileIDs").
	Project("created_by", "CreatedBy").
	Project("created_on", "CreatedOn").
	Project("modified_on", "ModifiedOn")

func scanDocument(s repository.Scanner) (Document, error) {
	var (
		d       Document
		related []byte
	)

	err := s.Scan(
		&d.ID,
		&d.DefinitionName,
		&d.DefinitionVersion,
		&d.Sequence,
		&d.Content,
		&d.AssigneeID,
		&d.AssigneeName,
		&related,
		&d.CreatedBy,
		&d.CreatedOn,
		&d.ModifiedOn,
	)
	if err != nil {
		return d, err
	}

	if len(related) > 0 {
		if err := json.Unmarshal(related, &d.RelatedFileIDs); err != nil {
			return d, fmt.Errorf("decode related file ids: %w", err)
		}
	}
	if d.RelatedFileIDs == nil {
		d.RelatedFileIDs = []uuid.UUID{}
	}
	return d, nil
}

type pgRepository struct {
	db         *sql.DB
	pagination pagination.Config
}

// NewRepository creates the Postgres-backed document repository.
func NewRepository(db *sql.DB, pagination pagination.Config) Repository {
	return &pgRepository{db: db, pagination: pagination}
}

func (r *pgRepository) Insert(ctx context.Context, doc *Document) error {
	related, err := json.Marshal(doc.RelatedFileIDs)
	if err != nil {
		return fmt.Errorf("encode related file ids: %w", err)
	}

	q := `INSERT INTO documents
		(id, definition_name, definition_version, sequence, content, assignee_id, assignee_name, related_file_ids, created_by, created_on, modified_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.db.ExecContext(ctx, q,
		doc.ID, doc.DefinitionName, doc.DefinitionVersion, doc.Sequence,
		[]byte(doc.Content), doc.AssigneeID, doc.AssigneeName, related,
		doc.CreatedBy, doc.CreatedOn, doc.ModifiedOn,
	)
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (r *pgRepository) FindByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("Id", id)

	doc, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &doc, nil
}

// Modify runs fn against the row locked with SELECT FOR UPDATE, so the
// validate-diff-write cycle is atomic across concurrent writers.
func (r *pgRepository) Modify(ctx context.Context, id uuid.UUID, fn func(doc *Document) (*AuditEntry, error)) (*Document, error) {
	return repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Document, error) {
		q := fmt.Sprintf(
			"SELECT %s FROM %s WHERE d.id = $1 FOR UPDATE",
			projection.Columns(), projection.Table(),
		)

		doc, err := repository.QueryOne(ctx, tx, q, []any{id}, scanDocument)
		if err != nil {
			return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
		}

		entry, err := fn(&doc)
		if err != nil {
			if errors.Is(err, errUnchanged) {
				return &doc, nil
			}
			return nil, err
		}

		related, err := json.Marshal(doc.RelatedFileIDs)
		if err != nil {
			return nil, fmt.Errorf("encode related file ids: %w", err)
		}

		update := `UPDATE documents
			SET content = $2, assignee_id = $3, assignee_name = $4, related_file_ids = $5, modified_on = $6
			WHERE id = $1`
		if err := repository.ExecExpectOne(ctx, tx, update,
			doc.ID, []byte(doc.Content), doc.AssigneeID, doc.AssigneeName, related, doc.ModifiedOn,
		); err != nil {
			return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
		}

		if entry != nil {
			patch, err := json.Marshal(entry.Patch)
			if err != nil {
				return nil, fmt.Errorf("encode audit patch: %w", err)
			}

			insert := `INSERT INTO document_audit (id, document_id, author, occurred_on, patch)
				VALUES ($1, $2, $3, $4, $5)`
			if _, err := tx.ExecContext(ctx, insert,
				entry.ID, entry.DocumentID, entry.Author, entry.OccurredOn, patch,
			); err != nil {
				return nil, fmt.Errorf("record audit entry: %w", err)
			}
		}

		return &doc, nil
	})
}

func (r *pgRepository) List(ctx context.Context, filter ListFilter, page pagination.PageRequest) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	b := query.NewBuilder(projection, query.SortField{Field: "CreatedOn", Descending: true})
	if filter.DefinitionName != "" {
		b.WhereEquals("DefinitionName", filter.DefinitionName)
	}
	if filter.AssigneeID != nil {
		b.WhereEquals("AssigneeID", *filter.AssigneeID)
	}
	if filter.CreatedBy != "" {
		b.WhereEquals("CreatedBy", filter.CreatedBy)
	}
	b.OrderByFields(page.Sort)

	countQ, countArgs := b.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	q, args := b.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *pgRepository) AuditLog(ctx context.Context, id uuid.UUID) ([]AuditEntry, error) {
	q := `SELECT id, document_id, author, occurred_on, patch
		FROM document_audit WHERE document_id = $1 ORDER BY occurred_on ASC`

	return repository.QueryMany(ctx, r.db, q, []any{id}, func(s repository.Scanner) (AuditEntry, error) {
		var (
			entry AuditEntry
			patch []byte
		)
		if err := s.Scan(&entry.ID, &entry.DocumentID, &entry.Author, &entry.OccurredOn, &patch); err != nil {
			return entry, err
		}
		if err := json.Unmarshal(patch, &entry.Patch); err != nil {
			return entry, fmt.Errorf("decode audit patch: %w", err)
		}
		return entry, nil
	})
}

func (r *pgRepository) CountByDefinitionName(ctx context.Context, name string) (int64, error) {
	q := `SELECT COUNT(*) FROM documents WHERE definition_name = $1`

	var count int64
	err := r.db.QueryRowContext(ctx, q, name).Scan(&count)
	return count, err
}

func (r *pgRepository) CountByRelatedFile(ctx context.Context, fileID uuid.UUID) (int64, error) {
	q := `SELECT COUNT(*) FROM documents WHERE related_file_ids @> $1`

	ref, err := json.Marshal([]uuid.UUID{fileID})
	if err != nil {
		return 0, err
	}

	var count int64
	err = r.db.QueryRowContext(ctx, q, ref).Scan(&count)
	return count, err
}
