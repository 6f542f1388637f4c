package abcxyz

import "math"

// XYZScore pairs a product's coefficient of variation with its band.
type XYZScore struct {
	CV   float64
	Band XYZBand
}

// CoefficientOfVariation returns population stddev / mean.
// It returns 0 for an empty series or a non-positive mean.
func CoefficientOfVariation(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	var sum float64
	constant := true
	for i, v := range values {
		sum += v
		if i > 0 && v != values[0] {
			constant = false
		}
	}
	if constant {
		return 0
	}

	mean := sum / float64(n)
	if mean <= 0 {
		return 0
	}

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}

	return math.Sqrt(sq/float64(n)) / mean
}

// ClassifyXYZ assigns variability bands keyed by ProductSeries.Key, using
// the same basis series as ClassifyABC.
func ClassifyXYZ(series []ProductSeries, c Criteria, basis Basis, zero ZeroMean) map[string]XYZScore {
	scores := make(map[string]XYZScore, len(series))

	for _, s := range series {
		values := s.Values(basis)
		cv := CoefficientOfVariation(values)

		var band XYZBand
		switch {
		case zero == ZeroMeanErratic && mean(values) == 0:
			band = BandZ
		case cv <= c.XCut:
			band = BandX
		case cv <= c.YCut:
			band = BandY
		default:
			band = BandZ
		}

		scores[s.Key()] = XYZScore{CV: cv, Band: band}
	}

	return scores
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
