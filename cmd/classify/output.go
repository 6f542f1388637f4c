package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/JaimeStill/verne/internal/imports"
	"github.com/JaimeStill/verne/pkg/abcxyz"
)

type writer func(io.Writer, *abcxyz.Result) error

func newWriter(format string) (writer, error) {
	switch format {
	case "table", "":
		return writeTable, nil
	case "json":
		return writeJSON, nil
	case "csv":
		return exportWriter(imports.FormatCSV), nil
	case "xlsx":
		return exportWriter(imports.FormatXLSX), nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

func write(w writer, result *abcxyz.Result, path string) error {
	if path == "" {
		return w(os.Stdout, result)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := w(f, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(out io.Writer, result *abcxyz.Result) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func exportWriter(format imports.Format) writer {
	return func(out io.Writer, result *abcxyz.Result) error {
		data, err := imports.Export(result, format)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}
}

// writeTable prints the ranked rows followed by the band matrix and totals.
func writeTable(out io.Writer, result *abcxyz.Result) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "ID\tPRODUCTO\tMARCA\tCLASE\tCANTIDAD\tINGRESO\tCV")
	for _, row := range result.Rows {
		id := "-"
		if row.ProductID != 0 {
			id = strconv.FormatInt(row.ProductID, 10)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.0f\t%.2f\t%.3f\n",
			id, row.Name, row.Brand, row.Combined,
			row.TotalQty, row.TotalRevenue, row.CV,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "\t")
	for _, x := range abcxyz.XYZBands() {
		fmt.Fprintf(tw, "%s\t", x)
	}
	fmt.Fprintln(tw)
	for _, a := range abcxyz.ABCBands() {
		fmt.Fprintf(tw, "%s\t", a)
		for _, x := range abcxyz.XYZBands() {
			fmt.Fprintf(tw, "%d (%.1f%%)\t", result.Matrix.Cell(a, x), result.Matrix.Percent[a][x])
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	period := "-"
	if n := len(result.Months); n > 0 {
		period = result.Months[0] + " .. " + result.Months[n-1]
	}
	_, err := fmt.Fprintf(out, "\nperiodo %s  productos %d  base %s  ingreso %.2f  cantidad %.0f\n",
		period,
		result.Totals.Products,
		result.Totals.Basis,
		result.Totals.Revenue,
		result.Totals.Quantity,
	)
	return err
}
