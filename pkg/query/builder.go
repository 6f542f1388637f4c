package query

import (
	"reflect"
	"strconv"
	"strings"
)

// SortField is one ORDER BY term. Field names a projected field.
type SortField struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

// ParseSortFields parses "name,-created_at" into sort fields. A leading "-"
// sorts descending. Blank terms are skipped.
func ParseSortFields(s string) []SortField {
	var fields []SortField

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		name, desc := strings.CutPrefix(part, "-")
		if name == "" {
			continue
		}
		fields = append(fields, SortField{Field: name, Descending: desc})
	}

	return fields
}

// Builder accumulates conditions and ordering over a projection and renders
// PostgreSQL statements with numbered placeholders.
type Builder struct {
	projection  *ProjectionMap
	where       []string
	args        []any
	sort        []SortField
	defaultSort []SortField
}

// NewBuilder creates a Builder. defaultSort applies when no valid sort
// fields are requested.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// OrderByFields requests an ordering. Fields outside the projection are
// ignored so client input never reaches the statement text.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = b.sort[:0]
	for _, f := range fields {
		if _, ok := b.projection.Lookup(f.Field); ok {
			b.sort = append(b.sort, f)
		}
	}
	return b
}

// WhereEquals adds field = value. Nil values, including typed nil
// pointers, add nothing.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	b.where = append(b.where, b.projection.Column(field)+" = ?")
	b.args = append(b.args, value)
	return b
}

// WhereSearch matches term case-insensitively against any of fields.
func (b *Builder) WhereSearch(term *string, fields ...string) *Builder {
	if term == nil || *term == "" || len(fields) == 0 {
		return b
	}

	pattern := "%" + *term + "%"
	clauses := make([]string, len(fields))
	for i, field := range fields {
		clauses[i] = b.projection.Column(field) + " ILIKE ?"
		b.args = append(b.args, pattern)
	}

	b.where = append(b.where, "("+strings.Join(clauses, " OR ")+")")
	return b
}

// Build returns the ordered SELECT.
func (b *Builder) Build() (string, []any) {
	return b.render(b.selectClause() + b.whereClause() + b.orderClause())
}

// BuildCount returns a COUNT(*) over the current conditions.
func (b *Builder) BuildCount() (string, []any) {
	return b.render("SELECT COUNT(*) FROM " + b.projection.From() + b.whereClause())
}

// BuildPage returns the ordered SELECT limited to one page.
func (b *Builder) BuildPage(limit, offset int) (string, []any) {
	return b.render(
		b.selectClause() + b.whereClause() + b.orderClause() +
			" LIMIT " + strconv.Itoa(limit) + " OFFSET " + strconv.Itoa(offset),
	)
}

// BuildFirst returns the first row under the current conditions and
// ordering.
func (b *Builder) BuildFirst() (string, []any) {
	return b.render(b.selectClause() + b.whereClause() + b.orderClause() + " LIMIT 1")
}

// BuildSingle selects the row whose field equals id, ignoring any other
// conditions.
func (b *Builder) BuildSingle(field string, id any) (string, []any) {
	sql := b.selectClause() + " WHERE " + b.projection.Column(field) + " = $1"
	return sql, []any{id}
}

func (b *Builder) selectClause() string {
	return "SELECT " + b.projection.Columns() + " FROM " + b.projection.From()
}

func (b *Builder) whereClause() string {
	if len(b.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.where, " AND ")
}

func (b *Builder) orderClause() string {
	fields := b.sort
	if len(fields) == 0 {
		fields = b.defaultSort
	}
	if len(fields) == 0 {
		return ""
	}

	terms := make([]string, len(fields))
	for i, f := range fields {
		dir := " ASC"
		if f.Descending {
			dir = " DESC"
		}
		terms[i] = b.projection.Column(f.Field) + dir
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

// render numbers the ? placeholders in order.
func (b *Builder) render(sql string) (string, []any) {
	if len(b.args) == 0 {
		return sql, nil
	}

	var sb strings.Builder
	n := 0
	for i := 0; i < len(sql); i++ {
		if sql[i] == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteByte(sql[i])
	}

	args := make([]any, len(b.args))
	copy(args, b.args)
	return sb.String(), args
}

func isNil(value any) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
