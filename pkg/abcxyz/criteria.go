package abcxyz

import "math"

// Criteria holds the four cut-points of a classification run.
// ACut and BCut are cumulative shares; XCut and YCut are CV thresholds.
type Criteria struct {
	ACut float64 `json:"a_cut"`
	BCut float64 `json:"b_cut"`
	XCut float64 `json:"x_cut"`
	YCut float64 `json:"y_cut"`
}

// DefaultCriteria returns the cut-points used before any are saved.
func DefaultCriteria() Criteria {
	return Criteria{
		ACut: 0.80,
		BCut: 0.95,
		XCut: 0.50,
		YCut: 0.90,
	}
}

// Validate enforces 0 < ACut < BCut < 1 and 0 < XCut < YCut.
func (c Criteria) Validate() error {
	if !finite(c.ACut, c.BCut) || !(0 < c.ACut && c.ACut < c.BCut && c.BCut < 1) {
		return &ValidationError{Relation: RelationABC, Criteria: c}
	}
	if !finite(c.XCut, c.YCut) || !(0 < c.XCut && c.XCut < c.YCut) {
		return &ValidationError{Relation: RelationXYZ, Criteria: c}
	}
	return nil
}

// CriteriaPatch is a partial criteria update. Nil fields keep their value.
type CriteriaPatch struct {
	ACut *float64 `json:"a_cut,omitempty"`
	BCut *float64 `json:"b_cut,omitempty"`
	XCut *float64 `json:"x_cut,omitempty"`
	YCut *float64 `json:"y_cut,omitempty"`
}

// Apply overlays the patch on base.
func (p CriteriaPatch) Apply(base Criteria) Criteria {
	if p.ACut != nil {
		base.ACut = *p.ACut
	}
	if p.BCut != nil {
		base.BCut = *p.BCut
	}
	if p.XCut != nil {
		base.XCut = *p.XCut
	}
	if p.YCut != nil {
		base.YCut = *p.YCut
	}
	return base
}

// Empty reports whether the patch changes nothing.
func (p CriteriaPatch) Empty() bool {
	return p.ACut == nil && p.BCut == nil && p.XCut == nil && p.YCut == nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
