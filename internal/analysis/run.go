package analysis

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/verne/internal/sales"
	"github.com/JaimeStill/verne/pkg/abcxyz"
)

// Source identifies where a run read its sales series from.
type Source string

const (
	SourceDatabase Source = "database"
	SourceImport   Source = "import"
)

// ParseSource resolves a source name, accepting "db" and "excel" as
// aliases. An empty name means any source and yields nil.
func ParseSource(s string) (*Source, error) {
	var src Source
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, nil
	case "database", "db":
		src = SourceDatabase
	case "import", "excel", "xlsx", "csv":
		src = SourceImport
	default:
		return nil, fmt.Errorf("%w %q: expected database (db) or import (excel)", ErrInvalidSource, s)
	}
	return &src, nil
}

// label names the source in messages; nil reads as any.
func (s *Source) label() string {
	if s == nil {
		return "any"
	}
	return string(*s)
}

// Summary is a persisted run without its result payload.
type Summary struct {
	ID          uuid.UUID       `json:"id"`
	Source      Source          `json:"source"`
	Filename    *string         `json:"filename,omitempty"`
	StorageKey  *string         `json:"storage_key,omitempty"`
	Criteria    abcxyz.Criteria `json:"criteria"`
	Basis       abcxyz.Basis    `json:"basis"`
	Products    int             `json:"products"`
	PeriodStart *string         `json:"period_start,omitempty"`
	PeriodEnd   *string         `json:"period_end,omitempty"`
	IssueCount  int             `json:"issue_count"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Run is a persisted classification run. Result is immutable once stored
// and its fields encode at the top level beside the summary.
type Run struct {
	Summary
	*abcxyz.Result
	Issues []abcxyz.Issue `json:"issues"`
}

// ImportCommand carries an uploaded spreadsheet into RunImport.
type ImportCommand struct {
	Filename string
	Data     io.Reader
}

// Precheck extends the sales readiness report with the criteria a run
// would use.
type Precheck struct {
	*sales.Precheck
	Config abcxyz.Criteria `json:"config"`
}

// File is a rendered download.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Options configures the analysis service.
type Options struct {
	Engine        abcxyz.Options
	MaxMonths     int
	MaxUploadSize int64
	ResultTTL     time.Duration
}

func newSummary(id uuid.UUID, source Source, c abcxyz.Criteria, result *abcxyz.Result, issues int) Summary {
	s := Summary{
		ID:         id,
		Source:     source,
		Criteria:   c,
		Basis:      result.Totals.Basis,
		Products:   result.Totals.Products,
		IssueCount: issues,
	}
	if n := len(result.Months); n > 0 {
		start, end := result.Months[0], result.Months[n-1]
		s.PeriodStart = &start
		s.PeriodEnd = &end
	}
	return s
}
