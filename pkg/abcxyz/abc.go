package abcxyz

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

type ranked struct {
	series ProductSeries
	total  decimal.Decimal
}

// SelectBasis picks revenue when any product has positive revenue,
// otherwise quantity. The choice is global for the run.
func SelectBasis(series []ProductSeries) Basis {
	for _, s := range series {
		for _, p := range s.Periods {
			if p.Revenue > 0 {
				return BasisRevenue
			}
		}
	}
	return BasisQuantity
}

// Rank orders series by descending basis total. Ties break by ascending
// product id; products without an id follow, ordered by name.
func Rank(series []ProductSeries, basis Basis) []ProductSeries {
	r := rank(series, basis)
	out := make([]ProductSeries, len(r))
	for i, item := range r {
		out[i] = item.series
	}
	return out
}

// ClassifyABC assigns contribution bands keyed by ProductSeries.Key.
// The cumulative share includes the current product, so the product that
// crosses a cut-point lands in the lower band.
func ClassifyABC(series []ProductSeries, c Criteria, basis Basis) map[string]ABCBand {
	bands := make(map[string]ABCBand, len(series))
	if len(series) == 0 {
		return bands
	}

	items := rank(series, basis)

	grand := decimal.Zero
	for _, item := range items {
		grand = grand.Add(item.total)
	}

	if !grand.IsPositive() {
		for _, item := range items {
			bands[item.series.Key()] = BandC
		}
		return bands
	}

	aLimit := grand.Mul(decimal.NewFromFloat(c.ACut))
	bLimit := grand.Mul(decimal.NewFromFloat(c.BCut))

	cumulative := decimal.Zero
	for _, item := range items {
		cumulative = cumulative.Add(item.total)

		switch {
		case cumulative.LessThanOrEqual(aLimit):
			bands[item.series.Key()] = BandA
		case cumulative.LessThanOrEqual(bLimit):
			bands[item.series.Key()] = BandB
		default:
			bands[item.series.Key()] = BandC
		}
	}

	return bands
}

func rank(series []ProductSeries, basis Basis) []ranked {
	items := make([]ranked, len(series))
	for i, s := range series {
		items[i] = ranked{series: s, total: decimalTotal(s, basis)}
	}

	slices.SortStableFunc(items, func(a, b ranked) int {
		if c := b.total.Cmp(a.total); c != 0 {
			return c
		}
		return compareIdentity(a.series, b.series)
	})

	return items
}

func compareIdentity(a, b ProductSeries) int {
	switch {
	case a.ProductID != 0 && b.ProductID != 0:
		return cmp.Compare(a.ProductID, b.ProductID)
	case a.ProductID != 0:
		return -1
	case b.ProductID != 0:
		return 1
	}
	if c := cmp.Compare(NormalizeName(a.Name), NormalizeName(b.Name)); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}

func decimalTotal(s ProductSeries, basis Basis) decimal.Decimal {
	total := decimal.Zero
	for _, v := range s.Values(basis) {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total
}
