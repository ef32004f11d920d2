package sequence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

type pgGenerator struct {
	db *sql.DB
}

// NewPostgres creates a Generator backed by the document_sequences table.
// The single upsert statement makes increment-and-read atomic: the row lock
// serializes callers per name while other names proceed unblocked.
func NewPostgres(db *sql.DB) Generator {
	return &pgGenerator{db: db}
}

func (g *pgGenerator) Next(ctx context.Context, definitionName string) (int64, error) {
	q := `INSERT INTO document_sequences (definition_name, value)
		VALUES ($1, 1)
		ON CONFLICT (definition_name)
		DO UPDATE SET value = document_sequences.value + 1
		RETURNING value`

	var value int64
	if err := g.db.QueryRowContext(ctx, q, definitionName).Scan(&value); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "22003" {
			return 0, ErrExhausted
		}
		return 0, fmt.Errorf("next sequence for %s: %w", definitionName, err)
	}

	if value < 1 {
		return 0, ErrExhausted
	}
	return value, nil
}
