package imports

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseNumber reads a spreadsheet amount in either the 1.234,56 or the
// 1,234.56 convention. When both separators appear the last one is the
// decimal mark; a single separator repeated is a thousands mark; a single
// occurrence is a decimal mark. Currency symbols and spaces are ignored.
// An empty cell is zero.
func ParseNumber(s string) (float64, error) {
	return parseNumber(s, false)
}

// ParseDecimalComma reads an amount from a comma-decimal source, such as a
// semicolon-delimited export, where a lone '.' only groups thousands:
// "1.000" is one thousand and "12,5" is twelve and a half.
func ParseDecimalComma(s string) (float64, error) {
	return parseNumber(s, true)
}

func parseNumber(s string, decimalComma bool) (float64, error) {
	raw := s
	s = strings.TrimPrefix(strings.TrimSpace(s), "S/")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '$', '€', '£':
			return -1
		}
		return r
	}, s)

	if s == "" {
		return 0, nil
	}
	if strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != ',' && r != '-'
	}) >= 0 {
		return 0, fmt.Errorf("invalid number %q", raw)
	}

	dot := strings.LastIndexByte(s, '.')
	comma := strings.LastIndexByte(s, ',')

	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case dot >= 0:
		if decimalComma || strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return d.InexactFloat64(), nil
}
