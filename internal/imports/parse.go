package imports

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JaimeStill/verne/pkg/abcxyz"
)

// Column names of the long layout. Each row is one product-month.
const (
	ColProductID = "id_producto"
	ColProduct   = "producto"
	ColBrand     = "marca"
	ColPeriod    = "periodo"
	ColQuantity  = "cantidad"
	ColRevenue   = "ingreso"
)

// Columns lists the canonical header in template order.
func Columns() []string {
	return []string{ColProductID, ColProduct, ColBrand, ColPeriod, ColQuantity, ColRevenue}
}

// PreferredSheet is read from a workbook when present; otherwise the first
// sheet is used.
const PreferredSheet = "ventas"

var aliases = map[string]string{
	"id_producto": ColProductID,
	"idproducto":  ColProductID,
	"product_id":  ColProductID,
	"id":          ColProductID,
	"producto":    ColProduct,
	"nombre":      ColProduct,
	"product":     ColProduct,
	"name":        ColProduct,
	"marca":       ColBrand,
	"brand":       ColBrand,
	"periodo":     ColPeriod,
	"mes":         ColPeriod,
	"fecha":       ColPeriod,
	"period":      ColPeriod,
	"month":       ColPeriod,
	"cantidad":    ColQuantity,
	"unidades":    ColQuantity,
	"quantity":    ColQuantity,
	"qty":         ColQuantity,
	"ingreso":     ColRevenue,
	"ingresos":    ColRevenue,
	"importe":     ColRevenue,
	"revenue":     ColRevenue,
	"amount":      ColRevenue,
}

// Serial range accepted for spreadsheet date cells: 1900-01-01 through
// 2099-12-31.
const (
	minDateSerial = 1
	maxDateSerial = 73050
)

// cells describes how a source encodes dates and numbers.
type cells struct {
	dateSerials  bool
	decimalComma bool
}

func (c cells) number(s string) (float64, error) {
	if c.decimalComma {
		return ParseDecimalComma(s)
	}
	return ParseNumber(s)
}

// Parse reads an upload in the given format into an aligned dataset. The
// month axis spans the first to last month present, bounded by maxMonths.
// Rejected rows are reported as dataset issues; a file without a single
// valid row is a DataError.
//
// Periods may be written YYYY-MM, YYYY-MM-DD, YYYY/MM or YYYYMM. Workbook
// date cells are also accepted; numeric periods in CSV are rejected.
func Parse(format Format, data []byte, maxMonths int) (*abcxyz.Dataset, error) {
	var (
		records [][]string
		style   cells
		err     error
	)

	switch format {
	case FormatCSV:
		data = bytes.TrimPrefix(data, []byte("\ufeff"))
		comma := detectDelimiter(data)
		style.decimalComma = comma == ';'
		records, err = readCSV(data, comma)
	case FormatXLSX:
		style.dateSerials = true
		records, err = readXLSX(data)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidFile, format)
	}
	if err != nil {
		return nil, err
	}

	return build(records, style, maxMonths)
}

func build(records [][]string, style cells, maxMonths int) (*abcxyz.Dataset, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: file has no header row", ErrInvalidFile)
	}

	index, err := mapHeader(records[0])
	if err != nil {
		return nil, err
	}

	b := abcxyz.NewBuilder(abcxyz.WithMaxMonths(maxMonths))
	rows := 0

	for i, record := range records[1:] {
		if blank(record) {
			continue
		}
		rows++

		obs, issue := observe(record, index, i+2, style)
		if issue != nil {
			b.Reject(*issue)
			continue
		}
		b.Add(obs)
	}

	if rows == 0 {
		return nil, &abcxyz.DataError{Reason: "file has no data rows"}
	}
	if b.Len() == 0 {
		return nil, &abcxyz.DataError{Reason: "no valid rows", Issues: b.Issues()}
	}

	return b.Build()
}

func mapHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, cell := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff")))
		key = strings.ReplaceAll(key, " ", "_")
		if col, ok := aliases[key]; ok {
			if _, dup := index[col]; !dup {
				index[col] = i
			}
		}
	}

	var missing []string
	if _, ok := index[ColProduct]; !ok {
		if _, ok := index[ColProductID]; !ok {
			missing = append(missing, ColProduct)
		}
	}
	for _, col := range []string{ColPeriod, ColQuantity} {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf(
			"%w: missing required columns: %s (expected header %s)",
			ErrInvalidFile, strings.Join(missing, ", "), strings.Join(Columns(), ","),
		)
	}
	return index, nil
}

func observe(record []string, index map[string]int, row int, style cells) (abcxyz.Observation, *abcxyz.Issue) {
	cell := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	obs := abcxyz.Observation{
		Row:    row,
		Name:   SanitizeText(cell(ColProduct)),
		Brand:  SanitizeText(cell(ColBrand)),
		Period: normalizePeriod(cell(ColPeriod), style.dateSerials),
	}

	if raw := cell(ColProductID); raw != "" {
		id, err := strconv.ParseInt(strings.TrimSuffix(raw, ".0"), 10, 64)
		if err != nil {
			return obs, &abcxyz.Issue{Row: row, Field: ColProductID, Reason: fmt.Sprintf("invalid product id %q", raw)}
		}
		obs.ProductID = id
	}

	qty, err := style.number(cell(ColQuantity))
	if err != nil {
		return obs, &abcxyz.Issue{Row: row, Field: ColQuantity, Reason: err.Error()}
	}
	obs.Quantity = qty

	revenue, err := style.number(cell(ColRevenue))
	if err != nil {
		return obs, &abcxyz.Issue{Row: row, Field: ColRevenue, Reason: err.Error()}
	}
	obs.Revenue = revenue

	return obs, nil
}

// normalizePeriod rewrites compact YYYYMM periods and, when serials is
// set, workbook date serials as YYYY-MM. Anything else passes through
// unchanged, so abcxyz.ParseMonth rejects it as an issue.
func normalizePeriod(s string, serials bool) string {
	if len(s) == 6 && digits(s) {
		year, _ := strconv.Atoi(s[:4])
		month, _ := strconv.Atoi(s[4:])
		if year >= 1900 && month >= 1 && month <= 12 {
			return s[:4] + "-" + s[4:]
		}
		return s
	}

	if !serials {
		return s
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial < minDateSerial || serial > maxDateSerial {
		return s
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return s
	}
	return abcxyz.FormatMonth(t)
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func readCSV(data []byte, comma rune) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	var records [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// detectDelimiter picks ';' when the header line has more semicolons than
// commas, as spreadsheets in comma-decimal locales export.
func detectDelimiter(data []byte) rune {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidFile)
	}

	sheet := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, PreferredSheet) {
			sheet = name
			break
		}
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer rows.Close()

	var records [][]string
	for rows.Next() {
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		records = append(records, cols)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return records, nil
}
