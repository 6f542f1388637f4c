package sales

import (
	"strconv"
	"strings"
)

// Dialect renders the loader queries for a SQL engine. Queries are written
// with ? placeholders and a {month} token for the month-label expression.
type Dialect struct {
	Name     string
	month    string
	numbered bool
}

var (
	Postgres = Dialect{Name: "postgres", month: "to_char(v.fecha, 'YYYY-MM')", numbered: true}
	MySQL    = Dialect{Name: "mysql", month: "DATE_FORMAT(v.fecha, '%Y-%m')"}
)

// Render substitutes the month expression and, for numbered dialects,
// rewrites ? placeholders as $1, $2, ...
func (d Dialect) Render(query string) string {
	query = strings.ReplaceAll(query, "{month}", d.month)
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
