package abcxyz

// Matrix cross-tabulates ABC and XYZ bands. All nine cells are present.
type Matrix struct {
	Grid    map[ABCBand]map[XYZBand]int     `json:"grid"`
	Percent map[ABCBand]map[XYZBand]float64 `json:"percent"`
}

// TopSeries carries the per-period arrays of a top product for charting.
type TopSeries struct {
	ProductID int64     `json:"id_producto"`
	Name      string    `json:"name"`
	Qty       []float64 `json:"qty"`
	Revenue   []float64 `json:"revenue"`
}

// NewMatrix returns a zero-filled matrix.
func NewMatrix() Matrix {
	m := Matrix{
		Grid:    make(map[ABCBand]map[XYZBand]int, 3),
		Percent: make(map[ABCBand]map[XYZBand]float64, 3),
	}
	for _, a := range ABCBands() {
		m.Grid[a] = make(map[XYZBand]int, 3)
		m.Percent[a] = make(map[XYZBand]float64, 3)
		for _, x := range XYZBands() {
			m.Grid[a][x] = 0
			m.Percent[a][x] = 0
		}
	}
	return m
}

// Aggregate counts rows per cell. Percent is count / total * 100.
func Aggregate(rows []ClassifiedProduct) Matrix {
	m := NewMatrix()
	for _, row := range rows {
		if _, ok := m.Grid[row.ABC]; !ok {
			continue
		}
		if _, ok := m.Grid[row.ABC][row.XYZ]; !ok {
			continue
		}
		m.Grid[row.ABC][row.XYZ]++
	}

	total := m.Total()
	if total == 0 {
		return m
	}

	for _, a := range ABCBands() {
		for _, x := range XYZBands() {
			m.Percent[a][x] = float64(m.Grid[a][x]) / float64(total) * 100
		}
	}
	return m
}

// Total returns the sum of all grid cells.
func (m Matrix) Total() int {
	var total int
	for _, row := range m.Grid {
		for _, n := range row {
			total += n
		}
	}
	return total
}

// Cell returns the count for the combined band, e.g. "AX".
func (m Matrix) Cell(a ABCBand, x XYZBand) int {
	return m.Grid[a][x]
}

// SelectTopSeries returns up to n products with the highest basis total.
func SelectTopSeries(series []ProductSeries, basis Basis, n int) []TopSeries {
	if n <= 0 || len(series) == 0 {
		return []TopSeries{}
	}

	ordered := Rank(series, basis)
	ordered = ordered[:min(n, len(ordered))]

	top := make([]TopSeries, len(ordered))
	for i, s := range ordered {
		top[i] = TopSeries{
			ProductID: s.ProductID,
			Name:      s.Name,
			Qty:       s.Values(BasisQuantity),
			Revenue:   s.Values(BasisRevenue),
		}
	}
	return top
}
