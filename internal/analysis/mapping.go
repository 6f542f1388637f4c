package analysis

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/JaimeStill/verne/pkg/abcxyz"
	"github.com/JaimeStill/verne/pkg/query"
	"github.com/JaimeStill/verne/pkg/repository"
)

var summaryProjection = projectSummary(
	query.NewProjectionMap("public", "abcxyz_runs", "r"),
)

var runProjection = projectSummary(
	query.NewProjectionMap("public", "abcxyz_runs", "r"),
).
	Project("result", "Result").
	Project("issues", "Issues")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

func projectSummary(p *query.ProjectionMap) *query.ProjectionMap {
	return p.
		Project("id", "ID").
		Project("source", "Source").
		Project("filename", "Filename").
		Project("storage_key", "StorageKey").
		Project("criteria", "Criteria").
		Project("basis", "Basis").
		Project("products", "Products").
		Project("period_start", "PeriodStart").
		Project("period_end", "PeriodEnd").
		Project("issue_count", "IssueCount").
		Project("created_at", "CreatedAt")
}

// Filters contains optional filtering criteria for run queries.
// Nil fields are ignored.
type Filters struct {
	Source *string `json:"source,omitempty"`
	Basis  *string `json:"basis,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Source", f.Source).
		WhereEquals("Basis", f.Basis)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("source"); s != "" {
		if src, err := ParseSource(s); err == nil {
			s = string(*src)
		}
		f.Source = &s
	}

	if b := values.Get("basis"); b != "" {
		f.Basis = &b
	}

	return f
}

func summaryTargets(s *Summary, criteria *[]byte) []any {
	return []any{
		&s.ID,
		&s.Source,
		&s.Filename,
		&s.StorageKey,
		criteria,
		&s.Basis,
		&s.Products,
		&s.PeriodStart,
		&s.PeriodEnd,
		&s.IssueCount,
		&s.CreatedAt,
	}
}

func scanSummary(s repository.Scanner) (Summary, error) {
	var sum Summary
	var criteriaRaw []byte

	if err := s.Scan(summaryTargets(&sum, &criteriaRaw)...); err != nil {
		return sum, err
	}

	if err := json.Unmarshal(criteriaRaw, &sum.Criteria); err != nil {
		return sum, fmt.Errorf("unmarshal criteria: %w", err)
	}

	return sum, nil
}

func scanRun(s repository.Scanner) (Run, error) {
	var run Run
	var criteriaRaw, resultRaw, issuesRaw []byte

	targets := append(summaryTargets(&run.Summary, &criteriaRaw), &resultRaw, &issuesRaw)
	if err := s.Scan(targets...); err != nil {
		return run, err
	}

	if err := json.Unmarshal(criteriaRaw, &run.Criteria); err != nil {
		return run, fmt.Errorf("unmarshal criteria: %w", err)
	}

	if err := json.Unmarshal(resultRaw, &run.Result); err != nil {
		return run, fmt.Errorf("unmarshal result: %w", err)
	}

	if len(issuesRaw) > 0 {
		if err := json.Unmarshal(issuesRaw, &run.Issues); err != nil {
			return run, fmt.Errorf("unmarshal issues: %w", err)
		}
	}

	if run.Issues == nil {
		run.Issues = []abcxyz.Issue{}
	}

	return run, nil
}
