package imports

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/JaimeStill/verne/pkg/abcxyz"
)

// ExportSheet and MatrixSheet name the workbook sheets of an export.
const (
	ExportSheet = "abcxyz"
	MatrixSheet = "matriz"
)

var exportHeader = []string{
	"id_producto", "producto", "marca",
	"ABC", "XYZ", "ABCXYZ",
	"total_qty", "total_revenue", "cv",
}

// Export renders the classified rows of result. XLSX exports carry a second
// sheet with the ABC x XYZ matrix. Text cells are guarded against formula
// injection.
func Export(result *abcxyz.Result, format Format) ([]byte, error) {
	records := exportRecords(result)

	switch format {
	case FormatCSV:
		return writeCSV(records)
	case FormatXLSX:
		return exportXLSX(result, records)
	}
	return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidFile, format)
}

func exportRecords(result *abcxyz.Result) [][]string {
	records := make([][]string, 0, len(result.Rows)+1)
	records = append(records, exportHeader)

	for _, row := range result.Rows {
		id := ""
		if row.ProductID != 0 {
			id = strconv.FormatInt(row.ProductID, 10)
		}
		records = append(records, []string{
			id,
			GuardFormula(row.Name),
			GuardFormula(row.Brand),
			string(row.ABC),
			string(row.XYZ),
			row.Combined,
			strconv.FormatFloat(row.TotalQty, 'f', -1, 64),
			strconv.FormatFloat(row.TotalRevenue, 'f', 2, 64),
			strconv.FormatFloat(row.CV, 'f', 4, 64),
		})
	}
	return records
}

func exportXLSX(result *abcxyz.Result, records [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	if err := writeRows(f, ExportSheet, records); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(MatrixSheet); err != nil {
		return nil, fmt.Errorf("create matrix sheet: %w", err)
	}
	if err := writeRows(f, MatrixSheet, matrixRecords(result.Matrix)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func matrixRecords(m abcxyz.Matrix) [][]string {
	header := []string{"ABC"}
	for _, x := range abcxyz.XYZBands() {
		header = append(header, string(x), string(x)+" %")
	}

	records := [][]string{header}
	for _, a := range abcxyz.ABCBands() {
		record := []string{string(a)}
		for _, x := range abcxyz.XYZBands() {
			record = append(record,
				strconv.Itoa(m.Grid[a][x]),
				strconv.FormatFloat(m.Percent[a][x], 'f', 2, 64),
			)
		}
		records = append(records, record)
	}
	return records
}
