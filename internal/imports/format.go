package imports

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Format is a supported spreadsheet format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var zipMagic = []byte("PK\x03\x04")

// ParseFormat resolves a format query value. Empty selects CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: unsupported format %q", ErrInvalidFile, s)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename returns base with the format's extension.
func (f Format) Filename(base string) string {
	return base + "." + string(f)
}

// Detect identifies the format of an upload from its extension and
// leading bytes. Both must agree.
func Detect(filename string, data []byte) (Format, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrInvalidFile)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	zipped := bytes.HasPrefix(data, zipMagic)

	switch ext {
	case ".xlsx":
		if !zipped {
			return "", fmt.Errorf("%w: %s is not an xlsx workbook", ErrInvalidFile, filename)
		}
		return FormatXLSX, nil
	case ".csv", ".txt":
		if zipped || !isText(data) {
			return "", fmt.Errorf("%w: %s is not a text csv file", ErrInvalidFile, filename)
		}
		return FormatCSV, nil
	}

	return "", fmt.Errorf("%w: unsupported extension %q (expected .csv or .xlsx)", ErrInvalidFile, ext)
}

func isText(data []byte) bool {
	head := data[:min(len(data), 1024)]
	if bytes.IndexByte(head, 0) != -1 {
		return false
	}
	if !utf8.Valid(trimPartialRune(head)) {
		return false
	}
	detected := http.DetectContentType(head)
	return strings.HasPrefix(detected, "text/")
}

// trimPartialRune drops a multi-byte rune cut off by the sniff window.
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return b
		}
		b = b[:len(b)-1]
	}
	return b
}
