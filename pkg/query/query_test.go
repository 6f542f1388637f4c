package query_test

import (
	"slices"
	"testing"

	"github.com/JaimeStill/verne/pkg/query"
)

const selectRuns = "SELECT r.id, r.source, r.filename, r.created_at FROM public.abcxyz_runs r"

func runs() *query.ProjectionMap {
	return query.NewProjectionMap("public", "abcxyz_runs", "r").
		Project("id", "ID").
		Project("source", "Source").
		Project("filename", "Filename").
		Project("created_at", "CreatedAt")
}

func ptr(s string) *string { return &s }

var newest = query.SortField{Field: "CreatedAt", Descending: true}

func TestProjectionMap(t *testing.T) {
	p := runs()

	if got := p.From(); got != "public.abcxyz_runs r" {
		t.Errorf("From() = %q", got)
	}
	if got := p.Columns(); got != "r.id, r.source, r.filename, r.created_at" {
		t.Errorf("Columns() = %q", got)
	}
	if col, ok := p.Lookup("Filename"); !ok || col != "r.filename" {
		t.Errorf("Lookup(Filename) = %q, %v", col, ok)
	}
	if _, ok := p.Lookup("filename; DROP TABLE x"); ok {
		t.Error("Lookup should reject unprojected fields")
	}
	if got := p.Column("unknown"); got != "unknown" {
		t.Errorf("Column(unknown) = %q", got)
	}

	bare := query.NewProjectionMap("", "marcas", "m").Project("id_marca", "ID")
	if got := bare.From(); got != "marcas m" {
		t.Errorf("From() without schema = %q", got)
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{"empty", "", nil},
		{"ascending", "Products", []query.SortField{{Field: "Products"}}},
		{"descending", "-CreatedAt", []query.SortField{newest}},
		{
			"mixed with spaces",
			" Source , -CreatedAt ",
			[]query.SortField{{Field: "Source"}, newest},
		},
		{"blank terms skipped", "Source,,-,", []query.SortField{{Field: "Source"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseSortFields(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	tests := []struct {
		name     string
		build    func(b *query.Builder) (string, []any)
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "plain select uses default sort",
			build:   (*query.Builder).Build,
			wantSQL: selectRuns + " ORDER BY r.created_at DESC",
		},
		{
			name: "equals",
			build: func(b *query.Builder) (string, []any) {
				return b.WhereEquals("Source", "import").Build()
			},
			wantSQL:  selectRuns + " WHERE r.source = $1 ORDER BY r.created_at DESC",
			wantArgs: []any{"import"},
		},
		{
			name: "nil pointer equals skipped",
			build: func(b *query.Builder) (string, []any) {
				var source *string
				return b.WhereEquals("Source", source).BuildCount()
			},
			wantSQL: "SELECT COUNT(*) FROM public.abcxyz_runs r",
		},
		{
			name: "search across fields",
			build: func(b *query.Builder) (string, []any) {
				return b.WhereSearch(ptr("ventas"), "Filename", "Source").BuildCount()
			},
			wantSQL:  "SELECT COUNT(*) FROM public.abcxyz_runs r WHERE (r.filename ILIKE $1 OR r.source ILIKE $2)",
			wantArgs: []any{"%ventas%", "%ventas%"},
		},
		{
			name: "empty search skipped",
			build: func(b *query.Builder) (string, []any) {
				return b.WhereSearch(ptr(""), "Filename").BuildCount()
			},
			wantSQL: "SELECT COUNT(*) FROM public.abcxyz_runs r",
		},
		{
			name: "conditions numbered in order",
			build: func(b *query.Builder) (string, []any) {
				return b.
					WhereEquals("Source", "import").
					WhereSearch(ptr("q1"), "Filename").
					BuildPage(25, 50)
			},
			wantSQL: selectRuns +
				" WHERE r.source = $1 AND (r.filename ILIKE $2)" +
				" ORDER BY r.created_at DESC LIMIT 25 OFFSET 50",
			wantArgs: []any{"import", "%q1%"},
		},
		{
			name: "requested sort overrides default",
			build: func(b *query.Builder) (string, []any) {
				return b.OrderByFields([]query.SortField{
					{Field: "Source"},
					{Field: "Filename", Descending: true},
				}).Build()
			},
			wantSQL: selectRuns + " ORDER BY r.source ASC, r.filename DESC",
		},
		{
			name: "unknown sort fields dropped",
			build: func(b *query.Builder) (string, []any) {
				return b.OrderByFields(query.ParseSortFields("id;DELETE,Source")).Build()
			},
			wantSQL: selectRuns + " ORDER BY r.source ASC",
		},
		{
			name: "all sort fields unknown falls back to default",
			build: func(b *query.Builder) (string, []any) {
				return b.OrderByFields(query.ParseSortFields("bogus")).Build()
			},
			wantSQL: selectRuns + " ORDER BY r.created_at DESC",
		},
		{
			name: "first",
			build: func(b *query.Builder) (string, []any) {
				return b.WhereEquals("Source", "database").BuildFirst()
			},
			wantSQL:  selectRuns + " WHERE r.source = $1 ORDER BY r.created_at DESC LIMIT 1",
			wantArgs: []any{"database"},
		},
		{
			name: "single ignores conditions",
			build: func(b *query.Builder) (string, []any) {
				return b.WhereEquals("Source", "database").BuildSingle("ID", "7f1c")
			},
			wantSQL:  selectRuns + " WHERE r.id = $1",
			wantArgs: []any{"7f1c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.build(query.NewBuilder(runs(), newest))

			if sql != tt.wantSQL {
				t.Errorf("sql\n got: %s\nwant: %s", sql, tt.wantSQL)
			}
			if !slices.Equal(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestBuilderWithoutDefaultSort(t *testing.T) {
	sql, args := query.NewBuilder(runs()).Build()

	if sql != selectRuns {
		t.Errorf("sql = %q, want %q", sql, selectRuns)
	}
	if args != nil {
		t.Errorf("args = %v, want nil", args)
	}
}
