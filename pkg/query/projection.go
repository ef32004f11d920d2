package query

import "strings"

type projectedColumn struct {
	column string
	field  string
}

// ProjectionMap binds logical field names to the physical columns of a table.
// Builders resolve sort and filter fields through the map so that callers
// never hand raw column names to SQL.
type ProjectionMap struct {
	schema  string
	table   string
	alias   string
	columns []projectedColumn
	byField map[string]string
}

// NewProjectionMap creates a ProjectionMap for schema.table with the given alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:  schema,
		table:   table,
		alias:   alias,
		byField: make(map[string]string),
	}
}

// Project registers a column under a logical field name. Registration order
// determines column order in SELECT lists.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	p.columns = append(p.columns, projectedColumn{column: column, field: field})
	p.byField[field] = p.alias + "." + column
	return p
}

// Table returns the aliased table reference for FROM clauses.
func (p *ProjectionMap) Table() string {
	return p.schema + "." + p.table + " " + p.alias
}

// Columns returns the comma-separated aliased column list in registration order.
func (p *ProjectionMap) Columns() string {
	cols := make([]string, len(p.columns))
	for i, c := range p.columns {
		cols[i] = p.alias + "." + c.column
	}
	return strings.Join(cols, ", ")
}

// Column resolves a logical field name to its aliased column.
// Unknown fields fall back to the first registered column to keep
// generated SQL well-formed.
func (p *ProjectionMap) Column(field string) string {
	if col, ok := p.byField[field]; ok {
		return col
	}
	if len(p.columns) > 0 {
		return p.alias + "." + p.columns[0].column
	}
	return field
}
