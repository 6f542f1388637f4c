// Package imports reads sales spreadsheets (CSV or XLSX, long layout) into
// classification datasets and writes templates and result exports.
package imports

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/JaimeStill/verne/pkg/abcxyz"
	"github.com/JaimeStill/verne/pkg/formatting"
)

// Upload is a received spreadsheet whose size and format were validated.
type Upload struct {
	Filename string
	Format   Format
	Data     []byte
}

// Read consumes r up to maxSize bytes and validates the content against
// the filename's extension.
func Read(filename string, r io.Reader, maxSize int64) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w of %s", ErrFileTooLarge, formatting.FormatBytes(maxSize, 0))
	}

	format, err := Detect(filename, data)
	if err != nil {
		return nil, err
	}

	return &Upload{
		Filename: CleanFilename(filename),
		Format:   format,
		Data:     data,
	}, nil
}

// Dataset parses the upload into an aligned dataset.
func (u *Upload) Dataset(maxMonths int) (*abcxyz.Dataset, error) {
	return Parse(u.Format, u.Data, maxMonths)
}

// CleanFilename reduces a client-supplied name to a safe base name for
// storage keys.
func CleanFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, name)
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return name
}
