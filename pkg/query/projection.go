// Package query builds parameterized SELECT statements over a projection of
// table columns onto the field names the API exposes.
package query

import "strings"

// ProjectionMap maps exposed field names to alias-qualified columns of a
// single table. Columns are selected in the order they were projected.
type ProjectionMap struct {
	from    string
	alias   string
	fields  map[string]string
	columns []string
}

// NewProjectionMap creates a projection over schema.table under alias.
// An empty schema leaves the table unqualified.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	from := table
	if schema != "" {
		from = schema + "." + table
	}

	return &ProjectionMap{
		from:   from + " " + alias,
		alias:  alias,
		fields: make(map[string]string),
	}
}

// Project selects column and exposes it as field.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	qualified := p.alias + "." + column
	p.fields[field] = qualified
	p.columns = append(p.columns, qualified)
	return p
}

// Lookup returns the qualified column for field.
func (p *ProjectionMap) Lookup(field string) (string, bool) {
	col, ok := p.fields[field]
	return col, ok
}

// Column returns the qualified column for field, or field itself when it
// is not projected.
func (p *ProjectionMap) Column(field string) string {
	if col, ok := p.fields[field]; ok {
		return col
	}
	return field
}

// Columns returns the select list.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.columns, ", ")
}

// From returns the FROM target, including the alias.
func (p *ProjectionMap) From() string {
	return p.from
}
