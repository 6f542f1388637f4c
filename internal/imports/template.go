package imports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JaimeStill/verne/pkg/abcxyz"
)

// TemplateFilename is the base name of the downloadable template.
const TemplateFilename = "plantilla_abcxyz"

type templateProduct struct {
	id    int64
	name  string
	brand string
	qty   float64
	price float64
}

var templateProducts = []templateProduct{
	{1, "Arroz 5kg", "Costeño", 120, 18.5},
	{2, "Aceite 1L", "Primor", 80, 9.9},
	{3, "Azúcar 1kg", "Cartavio", 45, 4.2},
}

// Template returns a long-layout template with example rows covering the
// last three months before now.
func Template(format Format, now time.Time) ([]byte, error) {
	records := templateRecords(now)

	switch format {
	case FormatCSV:
		return writeCSV(records)
	case FormatXLSX:
		return writeXLSX(PreferredSheet, records)
	}
	return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidFile, format)
}

func templateRecords(now time.Time) [][]string {
	months := abcxyz.TrailingMonths(now.AddDate(0, -1, 0), 3)

	records := [][]string{Columns()}
	for i, month := range months {
		for _, p := range templateProducts {
			qty := p.qty + float64(i*5)
			records = append(records, []string{
				strconv.FormatInt(p.id, 10),
				p.name,
				p.brand,
				month,
				strconv.FormatFloat(qty, 'f', -1, 64),
				strconv.FormatFloat(qty*p.price, 'f', 2, 64),
			})
		}
	}
	return records
}

func writeCSV(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func writeXLSX(sheet string, records [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	if err := writeRows(f, sheet, records); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, records [][]string) error {
	for i, record := range records {
		cells := make([]any, len(record))
		for j, v := range record {
			cells[j] = cellValue(v, i == 0)
		}
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return nil
}

// cellValue stores numeric strings as numbers so spreadsheets can sum them.
func cellValue(v string, header bool) any {
	if header {
		return v
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}
