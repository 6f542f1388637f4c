package abcxyz

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// Observation is one raw (product, month) measurement before alignment.
// Row is the 1-based source row used when reporting issues.
type Observation struct {
	Row       int
	ProductID int64
	Name      string
	Brand     string
	Period    string
	Quantity  float64
	Revenue   float64
}

// DefaultMaxMonths bounds a derived month axis when no WithMaxMonths option is given.
const DefaultMaxMonths = 120

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithMonths fixes the month axis. Observations outside it are rejected.
func WithMonths(months []string) BuilderOption {
	return func(b *Builder) {
		b.months = append([]string(nil), months...)
	}
}

// WithMaxMonths bounds the derived month axis.
func WithMaxMonths(n int) BuilderOption {
	return func(b *Builder) {
		b.maxMonths = n
	}
}

// Builder aligns observations into a Dataset. Duplicate (product, month)
// observations are summed and missing months are zero-filled.
type Builder struct {
	months    []string
	maxMonths int
	products  map[string]*pending
	order     []string
	issues    []Issue
	first     time.Time
	last      time.Time
}

type pending struct {
	series  ProductSeries
	byMonth map[string]*Period
}

// NewBuilder creates an empty Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		maxMonths: DefaultMaxMonths,
		products:  make(map[string]*pending),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add records an observation. Rejected observations are kept as issues
// and Add returns false.
func (b *Builder) Add(o Observation) bool {
	name := strings.TrimSpace(o.Name)
	if o.ProductID == 0 && name == "" {
		return b.reject(o.Row, "producto", "missing product id and name")
	}
	if o.ProductID < 0 {
		return b.reject(o.Row, "id_producto", "product id must be positive")
	}

	month, err := ParseMonth(o.Period)
	if err != nil {
		return b.reject(o.Row, "periodo", err.Error())
	}
	label := FormatMonth(month)

	if b.months != nil && !slices.Contains(b.months, label) {
		return b.reject(o.Row, "periodo", fmt.Sprintf("month %s outside analysis window", label))
	}
	if !validAmount(o.Quantity) {
		return b.reject(o.Row, "cantidad", "quantity must be a non-negative number")
	}
	if !validAmount(o.Revenue) {
		return b.reject(o.Row, "ingreso", "revenue must be a non-negative number")
	}

	if name == "" {
		name = fmt.Sprintf("#%d", o.ProductID)
	}

	series := ProductSeries{ProductID: o.ProductID, Name: name}
	key := series.Key()

	p, ok := b.products[key]
	if !ok {
		series.Brand = strings.TrimSpace(o.Brand)
		p = &pending{series: series, byMonth: make(map[string]*Period)}
		b.products[key] = p
		b.order = append(b.order, key)
	} else if p.series.Brand == "" {
		p.series.Brand = strings.TrimSpace(o.Brand)
	}

	period, ok := p.byMonth[label]
	if !ok {
		period = &Period{Label: label}
		p.byMonth[label] = period
	}
	period.Quantity += o.Quantity
	period.Revenue += o.Revenue

	if b.first.IsZero() || month.Before(b.first) {
		b.first = month
	}
	if month.After(b.last) {
		b.last = month
	}

	return true
}

// Issues returns the observations rejected so far.
func (b *Builder) Issues() []Issue {
	return b.issues
}

// Len returns the number of distinct products accepted so far.
func (b *Builder) Len() int {
	return len(b.order)
}

// Build aligns every product to the month axis. An empty builder yields an
// empty dataset, not an error.
func (b *Builder) Build() (*Dataset, error) {
	months := b.months
	if months == nil && len(b.order) > 0 {
		months = MonthRange(b.first, b.last)
		if b.maxMonths > 0 && len(months) > b.maxMonths {
			return nil, &DataError{
				Reason: fmt.Sprintf(
					"period range %s..%s spans %d months, limit is %d",
					months[0], months[len(months)-1], len(months), b.maxMonths,
				),
				Issues: b.issues,
			}
		}
	}
	if months == nil {
		months = []string{}
	}

	ds := &Dataset{
		Months: months,
		Series: make([]ProductSeries, 0, len(b.order)),
		Issues: b.issues,
	}

	for _, key := range b.order {
		p := b.products[key]
		series := p.series
		series.Periods = make([]Period, len(months))
		for i, label := range months {
			if period, ok := p.byMonth[label]; ok {
				series.Periods[i] = *period
			} else {
				series.Periods[i] = Period{Label: label}
			}
		}
		ds.Series = append(ds.Series, series)
	}

	return ds, nil
}

// Reject records an issue found by the caller before an observation could
// be formed, such as an unparseable cell.
func (b *Builder) Reject(issue Issue) {
	b.issues = append(b.issues, issue)
}

func (b *Builder) reject(row int, field, reason string) bool {
	b.Reject(Issue{Row: row, Field: field, Reason: reason})
	return false
}

// ValidateDataset checks the alignment invariants the classifiers rely on.
func ValidateDataset(ds *Dataset) error {
	if ds == nil || len(ds.Series) == 0 {
		return nil
	}
	if len(ds.Months) == 0 {
		return &DataError{Reason: "dataset has products but no periods"}
	}

	seen := make(map[string]struct{}, len(ds.Series))
	for _, s := range ds.Series {
		key := s.Key()
		if _, dup := seen[key]; dup {
			return &DataError{Reason: fmt.Sprintf("duplicate product %s", key)}
		}
		seen[key] = struct{}{}

		if len(s.Periods) != len(ds.Months) {
			return &DataError{Reason: fmt.Sprintf(
				"product %s has %d periods, want %d", key, len(s.Periods), len(ds.Months),
			)}
		}
		for i, p := range s.Periods {
			if p.Label != ds.Months[i] {
				return &DataError{Reason: fmt.Sprintf(
					"product %s period %d is %s, want %s", key, i, p.Label, ds.Months[i],
				)}
			}
			if !validAmount(p.Quantity) || !validAmount(p.Revenue) {
				return &DataError{Reason: fmt.Sprintf(
					"product %s has a negative or non-finite value in %s", key, p.Label,
				)}
			}
		}
	}
	return nil
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
