package imports_test

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JaimeStill/verne/internal/imports"
	"github.com/JaimeStill/verne/pkg/abcxyz"
)

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"too large", imports.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"invalid file", imports.ErrInvalidFile, http.StatusBadRequest},
		{"wrapped invalid", fmt.Errorf("%w: empty", imports.ErrInvalidFile), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := imports.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"", 0, false},
		{"12", 12, false},
		{"12,5", 12.5, false},
		{"12.5", 12.5, false},
		{"1.234,56", 1234.56, false},
		{"1,234.56", 1234.56, false},
		{"1.234.567", 1234567, false},
		{"1,234,567", 1234567, false},
		{"S/ 1.500,00", 1500, false},
		{"$1,000.50", 1000.5, false},
		{" 7 ", 7, false},
		{"-3", -3, false},
		{"abc", 0, true},
		{"12kg", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := imports.ParseNumber(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseNumber(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseNumber(%q) error: %v", tt.in, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Arroz", "Arroz"},
		{"<b>Aceite</b>", "Aceite"},
		{"<script>alert(1)</script>Sal", "Sal"},
		{"Café  \t extra", "Café extra"},
		{"Leche\x00\x07 entera", "Leche entera"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := imports.SanitizeText(tt.in); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGuardFormula(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Arroz", "Arroz"},
		{"=SUM(A1:A2)", "'=SUM(A1:A2)"},
		{"+1", "'+1"},
		{"-1", "'-1"},
		{"@cmd", "'@cmd"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := imports.GuardFormula(tt.in); got != tt.want {
				t.Errorf("GuardFormula(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ventas.csv", "ventas.csv"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\ana\ventas enero.xlsx`, "ventas_enero.xlsx"},
		{"", "upload"},
		{"..", "upload"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := imports.CleanFilename(tt.in); got != tt.want {
				t.Errorf("CleanFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    imports.Format
		wantErr bool
	}{
		{"", imports.FormatCSV, false},
		{"csv", imports.FormatCSV, false},
		{"XLSX", imports.FormatXLSX, false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := imports.ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, imports.ErrInvalidFile) {
					t.Errorf("ParseFormat(%q) error = %v, want ErrInvalidFile", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	csvData := []byte("producto,periodo,cantidad\nArroz,2025-01,1\n")
	xlsxData := []byte("PK\x03\x04rest-of-zip")

	tests := []struct {
		name     string
		filename string
		data     []byte
		want     imports.Format
		wantErr  bool
	}{
		{"csv", "ventas.csv", csvData, imports.FormatCSV, false},
		{"txt as csv", "ventas.TXT", csvData, imports.FormatCSV, false},
		{"xlsx", "ventas.xlsx", xlsxData, imports.FormatXLSX, false},
		{"xlsx extension with text", "ventas.xlsx", csvData, "", true},
		{"csv extension with zip", "ventas.csv", xlsxData, "", true},
		{"binary csv", "ventas.csv", []byte("a,b\x00c"), "", true},
		{"unsupported extension", "ventas.pdf", csvData, "", true},
		{"empty", "ventas.csv", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := imports.Detect(tt.filename, tt.data)
			if tt.wantErr {
				if !errors.Is(err, imports.ErrInvalidFile) {
					t.Errorf("Detect() error = %v, want ErrInvalidFile", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Detect() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Detect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRead(t *testing.T) {
	data := "producto,periodo,cantidad\nArroz,2025-01,1\n"

	t.Run("within limit", func(t *testing.T) {
		u, err := imports.Read("mis ventas.csv", strings.NewReader(data), int64(len(data)))
		if err != nil {
			t.Fatalf("Read() error: %v", err)
		}
		if u.Filename != "mis_ventas.csv" || u.Format != imports.FormatCSV {
			t.Errorf("upload = %q/%q", u.Filename, u.Format)
		}
		if string(u.Data) != data {
			t.Errorf("data not preserved")
		}
	})

	t.Run("too large", func(t *testing.T) {
		_, err := imports.Read("ventas.csv", strings.NewReader(data), int64(len(data)-1))
		if !errors.Is(err, imports.ErrFileTooLarge) {
			t.Errorf("Read() error = %v, want ErrFileTooLarge", err)
		}
	})
}

const longCSV = "id_producto,producto,marca,periodo,cantidad,ingreso\n" +
	"1,Arroz,Costeño,2025-01,10,100\n" +
	"1,Arroz,Costeño,2025-03,5,50\n" +
	"2,<b>Aceite</b>,Primor,2025-02,\"1.234,5\",\"2.000,00\"\n" +
	"3,Sal,,bad,1,1\n" +
	",,,,,\n"

func TestParseCSV(t *testing.T) {
	ds, err := imports.Parse(imports.FormatCSV, []byte(longCSV), abcxyz.DefaultMaxMonths)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	wantMonths := []string{"2025-01", "2025-02", "2025-03"}
	if strings.Join(ds.Months, ",") != strings.Join(wantMonths, ",") {
		t.Errorf("months = %v, want %v", ds.Months, wantMonths)
	}
	if len(ds.Series) != 2 {
		t.Fatalf("series = %d, want 2", len(ds.Series))
	}

	arroz := ds.Series[0]
	if arroz.ProductID != 1 || arroz.Name != "Arroz" || arroz.Brand != "Costeño" {
		t.Errorf("arroz = %+v", arroz)
	}
	gotQty := []float64{arroz.Periods[0].Quantity, arroz.Periods[1].Quantity, arroz.Periods[2].Quantity}
	if gotQty[0] != 10 || gotQty[1] != 0 || gotQty[2] != 5 {
		t.Errorf("arroz quantities = %v, want [10 0 5]", gotQty)
	}

	aceite := ds.Series[1]
	if aceite.Name != "Aceite" {
		t.Errorf("aceite name = %q, want sanitized Aceite", aceite.Name)
	}
	if aceite.Periods[1].Quantity != 1234.5 || aceite.Periods[1].Revenue != 2000 {
		t.Errorf("aceite 2025-02 = %+v", aceite.Periods[1])
	}

	if len(ds.Issues) != 1 {
		t.Fatalf("issues = %v, want 1", ds.Issues)
	}
	if ds.Issues[0].Row != 5 || ds.Issues[0].Field != imports.ColPeriod {
		t.Errorf("issue = %+v, want row 5 periodo", ds.Issues[0])
	}
}

func TestParseSemicolonAliases(t *testing.T) {
	data := "\ufeffProduct;Month;Quantity;Revenue\n" +
		"Arroz;2025-01-15;1,5;10,25\n" +
		"arroz ;2025-01;0,5;1,75\n"

	ds, err := imports.Parse(imports.FormatCSV, []byte(data), abcxyz.DefaultMaxMonths)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if len(ds.Series) != 1 {
		t.Fatalf("series = %d, want duplicates merged into 1", len(ds.Series))
	}
	p := ds.Series[0].Periods[0]
	if p.Quantity != 2 || p.Revenue != 12 {
		t.Errorf("period = %+v, want quantity 2 revenue 12", p)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"empty file", "", imports.ErrInvalidFile},
		{"missing columns", "producto,cantidad\nArroz,1\n", imports.ErrInvalidFile},
		{"header only", "producto,periodo,cantidad\n", abcxyz.ErrInvalidData},
		{"no valid rows", "producto,periodo,cantidad\nArroz,2025-01,x\nSal,nope,1\n", abcxyz.ErrInvalidData},
		{
			"range too long",
			"producto,periodo,cantidad\nArroz,2000-01,1\nArroz,2025-01,1\n",
			abcxyz.ErrInvalidData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := imports.Parse(imports.FormatCSV, []byte(tt.data), abcxyz.DefaultMaxMonths)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("issues listed", func(t *testing.T) {
		_, err := imports.Parse(
			imports.FormatCSV,
			[]byte("producto,periodo,cantidad\nArroz,2025-01,x\n"),
			abcxyz.DefaultMaxMonths,
		)
		var dataErr *abcxyz.DataError
		if !errors.As(err, &dataErr) {
			t.Fatalf("error = %v, want DataError", err)
		}
		if len(dataErr.Issues) != 1 || dataErr.Issues[0].Field != imports.ColQuantity {
			t.Errorf("issues = %+v", dataErr.Issues)
		}
	})
}

func TestTemplateRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	for _, format := range []imports.Format{imports.FormatCSV, imports.FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			data, err := imports.Template(format, now)
			if err != nil {
				t.Fatalf("Template() error: %v", err)
			}

			detected, err := imports.Detect(format.Filename(imports.TemplateFilename), data)
			if err != nil || detected != format {
				t.Fatalf("Detect() = %q, %v", detected, err)
			}

			ds, err := imports.Parse(format, data, abcxyz.DefaultMaxMonths)
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if len(ds.Series) != 3 {
				t.Errorf("series = %d, want 3", len(ds.Series))
			}
			if got := strings.Join(ds.Months, ","); got != "2025-03,2025-04,2025-05" {
				t.Errorf("months = %s", got)
			}
			if len(ds.Issues) != 0 {
				t.Errorf("issues = %v, want none", ds.Issues)
			}
			if ds.Series[0].ProductID != 1 {
				t.Errorf("first product id = %d, want 1", ds.Series[0].ProductID)
			}
		})
	}
}

func TestParseXLSXPreferredSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetRow("Sheet1", "A1", &[]any{"notas"})
	if _, err := f.NewSheet("Ventas"); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	f.SetSheetRow("Ventas", "A1", &[]any{"producto", "periodo", "cantidad", "ingreso"})
	f.SetSheetRow("Ventas", "A2", &[]any{"Arroz", "2025-01", 3, 30.5})

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	ds, err := imports.Parse(imports.FormatXLSX, buf.Bytes(), abcxyz.DefaultMaxMonths)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(ds.Series) != 1 || ds.Series[0].Periods[0].Revenue != 30.5 {
		t.Errorf("dataset = %+v", ds)
	}
}

func TestParsePeriods(t *testing.T) {
	t.Run("compact csv months", func(t *testing.T) {
		data := "producto,periodo,cantidad\na,202401,10\na,202402,50\na,202403,1\n"

		ds, err := imports.Parse(imports.FormatCSV, []byte(data), abcxyz.DefaultMaxMonths)
		if err != nil {
			t.Fatalf("Parse() error: %v", err)
		}

		want := []string{"2024-01", "2024-02", "2024-03"}
		if strings.Join(ds.Months, ",") != strings.Join(want, ",") {
			t.Errorf("months = %v, want %v", ds.Months, want)
		}
		if len(ds.Issues) != 0 {
			t.Errorf("issues = %+v, want none", ds.Issues)
		}
		got := ds.Series[0].Values(abcxyz.BasisQuantity)
		if len(got) != 3 || got[0] != 10 || got[1] != 50 || got[2] != 1 {
			t.Errorf("quantities = %v, want [10 50 1]", got)
		}
	})

	t.Run("numeric csv periods are issues", func(t *testing.T) {
		data := "producto,periodo,cantidad\na,2025-01,10\nb,45292,5\nc,202413,1\n"

		ds, err := imports.Parse(imports.FormatCSV, []byte(data), abcxyz.DefaultMaxMonths)
		if err != nil {
			t.Fatalf("Parse() error: %v", err)
		}

		if strings.Join(ds.Months, ",") != "2025-01" {
			t.Errorf("months = %v, want [2025-01]", ds.Months)
		}
		if len(ds.Issues) != 2 {
			t.Fatalf("issues = %+v, want 2", ds.Issues)
		}
		for _, issue := range ds.Issues {
			if issue.Field != imports.ColPeriod {
				t.Errorf("issue = %+v, want periodo", issue)
			}
		}
	})

	t.Run("workbook date cells", func(t *testing.T) {
		f := excelize.NewFile()
		defer f.Close()

		f.SetSheetRow("Sheet1", "A1", &[]any{"producto", "periodo", "cantidad"})
		f.SetSheetRow("Sheet1", "A2", &[]any{"Arroz", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), 3})
		f.SetSheetRow("Sheet1", "A3", &[]any{"Arroz", 202502, 4})
		f.SetSheetRow("Sheet1", "A4", &[]any{"Arroz", 900000, 5})

		buf, err := f.WriteToBuffer()
		if err != nil {
			t.Fatalf("WriteToBuffer: %v", err)
		}

		ds, err := imports.Parse(imports.FormatXLSX, buf.Bytes(), abcxyz.DefaultMaxMonths)
		if err != nil {
			t.Fatalf("Parse() error: %v", err)
		}

		if strings.Join(ds.Months, ",") != "2025-01,2025-02" {
			t.Errorf("months = %v, want [2025-01 2025-02]", ds.Months)
		}
		if len(ds.Issues) != 1 || ds.Issues[0].Row != 4 {
			t.Errorf("issues = %+v, want row 4 rejected", ds.Issues)
		}
	})
}

func TestParseSemicolonThousands(t *testing.T) {
	data := "producto;periodo;cantidad;ingreso\n" +
		"Arroz;2025-01;1.000;12.500\n" +
		"Aceite;2025-01;3;1.234,50\n"

	ds, err := imports.Parse(imports.FormatCSV, []byte(data), abcxyz.DefaultMaxMonths)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	arroz, aceite := ds.Series[0].Periods[0], ds.Series[1].Periods[0]
	if arroz.Quantity != 1000 || arroz.Revenue != 12500 {
		t.Errorf("arroz = %+v, want 1000 units and 12500 revenue", arroz)
	}
	if aceite.Revenue != 1234.5 {
		t.Errorf("aceite revenue = %v, want 1234.5", aceite.Revenue)
	}
}

func TestParseDecimalComma(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.000", 1000},
		{"12.500", 12500},
		{"12,5", 12.5},
		{"1.234,56", 1234.56},
		{"S/ 2.000,00", 2000},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := imports.ParseDecimalComma(tt.in)
			if err != nil {
				t.Fatalf("ParseDecimalComma(%q) error: %v", tt.in, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseDecimalComma(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func classified(t *testing.T) *abcxyz.Result {
	t.Helper()
	ds := &abcxyz.Dataset{
		Months: []string{"2025-01", "2025-02"},
		Series: []abcxyz.ProductSeries{
			{ProductID: 1, Name: "Arroz", Periods: []abcxyz.Period{
				{Label: "2025-01", Quantity: 10, Revenue: 100},
				{Label: "2025-02", Quantity: 10, Revenue: 100},
			}},
			{Name: "=HYPERLINK(\"x\")", Periods: []abcxyz.Period{
				{Label: "2025-01", Quantity: 1, Revenue: 5},
				{Label: "2025-02", Quantity: 0, Revenue: 0},
			}},
		},
	}
	result, err := abcxyz.Classify(ds, abcxyz.DefaultCriteria(), abcxyz.DefaultOptions())
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	return result
}

func TestExportCSV(t *testing.T) {
	data, err := imports.Export(classified(t), imports.FormatCSV)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want header + 2", len(records))
	}
	if records[0][0] != "id_producto" || records[0][5] != "ABCXYZ" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][1] != "Arroz" || records[1][0] != "1" {
		t.Errorf("first row = %v", records[1])
	}
	if !strings.HasPrefix(records[2][1], "'=") {
		t.Errorf("formula not guarded: %q", records[2][1])
	}
	if records[2][0] != "" {
		t.Errorf("missing id should export empty, got %q", records[2][0])
	}
}

func TestExportXLSX(t *testing.T) {
	result := classified(t)

	data, err := imports.Export(result, imports.FormatXLSX)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(imports.ExportSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != len(result.Rows)+1 {
		t.Errorf("rows = %d, want %d", len(rows), len(result.Rows)+1)
	}

	matrix, err := f.GetRows(imports.MatrixSheet)
	if err != nil {
		t.Fatalf("GetRows matrix: %v", err)
	}
	if len(matrix) != 4 {
		t.Errorf("matrix rows = %d, want header + 3 bands", len(matrix))
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	_, err := imports.Export(classified(t), imports.Format("pdf"))
	if !errors.Is(err, imports.ErrInvalidFile) {
		t.Errorf("Export() error = %v, want ErrInvalidFile", err)
	}
}
