// Package abcxyz implements ABC-XYZ inventory classification.
// ABC bands products by cumulative contribution to a total, XYZ bands them
// by the coefficient of variation of their per-period demand, and the two
// axes combine into a 3x3 matrix.
package abcxyz

import (
	"fmt"
	"strings"
)

// ABCBand is a contribution band.
type ABCBand string

// XYZBand is a variability band.
type XYZBand string

const (
	BandA ABCBand = "A"
	BandB ABCBand = "B"
	BandC ABCBand = "C"

	BandX XYZBand = "X"
	BandY XYZBand = "Y"
	BandZ XYZBand = "Z"
)

// ABCBands lists the contribution bands in rank order.
func ABCBands() []ABCBand {
	return []ABCBand{BandA, BandB, BandC}
}

// XYZBands lists the variability bands in rank order.
func XYZBands() []XYZBand {
	return []XYZBand{BandX, BandY, BandZ}
}

// Basis is the measure used for both classification axes within a run.
type Basis string

const (
	BasisRevenue  Basis = "revenue"
	BasisQuantity Basis = "quantity"
)

// Period holds one month of demand for a product.
type Period struct {
	Label    string  `json:"periodo"`
	Quantity float64 `json:"cantidad"`
	Revenue  float64 `json:"ingreso"`
}

// ProductSeries is the per-product time series consumed by the classifiers.
// ProductID may be zero for spreadsheet imports, in which case identity
// falls back to Name.
type ProductSeries struct {
	ProductID int64    `json:"id_producto"`
	Name      string   `json:"producto"`
	Brand     string   `json:"marca,omitempty"`
	Periods   []Period `json:"periods"`
}

// Key returns the identity of the product within a run.
func (s ProductSeries) Key() string {
	if s.ProductID != 0 {
		return fmt.Sprintf("id:%d", s.ProductID)
	}
	return "name:" + NormalizeName(s.Name)
}

// TotalQuantity sums quantity over all periods.
func (s ProductSeries) TotalQuantity() float64 {
	var total float64
	for _, p := range s.Periods {
		total += p.Quantity
	}
	return total
}

// TotalRevenue sums revenue over all periods.
func (s ProductSeries) TotalRevenue() float64 {
	var total float64
	for _, p := range s.Periods {
		total += p.Revenue
	}
	return total
}

// Values returns the per-period series for the given basis.
func (s ProductSeries) Values(basis Basis) []float64 {
	values := make([]float64, len(s.Periods))
	for i, p := range s.Periods {
		if basis == BasisRevenue {
			values[i] = p.Revenue
		} else {
			values[i] = p.Quantity
		}
	}
	return values
}

// Total returns the series total for the given basis.
func (s ProductSeries) Total(basis Basis) float64 {
	if basis == BasisRevenue {
		return s.TotalRevenue()
	}
	return s.TotalQuantity()
}

// NormalizeName folds a product name for identity comparison.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Dataset is an aligned set of product series sharing one month axis.
type Dataset struct {
	Months []string        `json:"months"`
	Series []ProductSeries `json:"series"`
	Issues []Issue         `json:"issues,omitempty"`
}

// Issue records an input row rejected at the ingestion boundary.
type Issue struct {
	Row    int    `json:"row"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

// ClassifiedProduct is the output record for one product.
type ClassifiedProduct struct {
	ProductID    int64   `json:"id_producto"`
	Name         string  `json:"producto"`
	Brand        string  `json:"marca,omitempty"`
	ABC          ABCBand `json:"ABC"`
	XYZ          XYZBand `json:"XYZ"`
	Combined     string  `json:"ABCXYZ"`
	TotalQty     float64 `json:"total_qty"`
	TotalRevenue float64 `json:"total_revenue"`
	CV           float64 `json:"cv"`
}

// Totals summarizes a run. Basis reports which measure drove both axes.
type Totals struct {
	Revenue  float64 `json:"revenue"`
	Quantity float64 `json:"quantity"`
	Products int     `json:"products"`
	Basis    Basis   `json:"basis"`
}

// Result is the complete output of a classification run.
type Result struct {
	Months    []string            `json:"months"`
	Rows      []ClassifiedProduct `json:"rows"`
	Matrix    Matrix              `json:"matrix"`
	Totals    Totals              `json:"totals"`
	TopSeries []TopSeries         `json:"top_series"`
}

// ZeroMean selects the XYZ band for products whose mean demand is zero.
type ZeroMean string

const (
	// ZeroMeanStable bands zero-mean products as X (cv is reported as 0).
	ZeroMeanStable ZeroMean = "stable"
	// ZeroMeanErratic bands zero-mean products as Z.
	ZeroMeanErratic ZeroMean = "erratic"
)

// Options tunes a run without affecting the criteria invariants.
type Options struct {
	ZeroMean  ZeroMean
	TopSeries int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		ZeroMean:  ZeroMeanStable,
		TopSeries: 3,
	}
}

// ParseZeroMean validates a zero-mean policy name.
func ParseZeroMean(s string) (ZeroMean, error) {
	switch ZeroMean(strings.ToLower(strings.TrimSpace(s))) {
	case ZeroMeanStable, "x", "":
		return ZeroMeanStable, nil
	case ZeroMeanErratic, "z":
		return ZeroMeanErratic, nil
	}
	return "", fmt.Errorf("unknown zero mean policy: %q", s)
}

func (o Options) normalized() Options {
	if o.ZeroMean == "" {
		o.ZeroMean = ZeroMeanStable
	}
	if o.TopSeries <= 0 {
		o.TopSeries = 3
	}
	return o
}
