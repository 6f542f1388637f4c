// Package formatting converts byte sizes to and from the human-readable
// form used in configuration files and error messages.
package formatting

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

const unit = 1024

var prefixes = []string{"", "K", "M", "G", "T", "P", "E"}

// FormatBytes renders n with the largest base-1024 unit that keeps the
// value at or above one, e.g. FormatBytes(52428800, 0) == "50 MB".
func FormatBytes(n int64, precision int) string {
	precision = max(precision, 0)

	size := float64(n)
	i := 0
	for math.Abs(size) >= unit && i < len(prefixes)-1 {
		size /= unit
		i++
	}

	if i == 0 {
		return strconv.FormatInt(n, 10) + " B"
	}
	return strconv.FormatFloat(size, 'f', precision, 64) + " " + prefixes[i] + "B"
}

// ParseBytes reads sizes such as "50MB", "1.5 GiB", "512k" or "2048".
// Units are base-1024 and case-insensitive. A bare number is bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	num, suffix := s, ""
	if split >= 0 {
		num, suffix = s[:split], strings.TrimSpace(s[split:])
	}

	value, err := strconv.ParseFloat(num, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}

	exp, ok := exponent(suffix)
	if !ok {
		return 0, fmt.Errorf("unknown byte size unit %q", suffix)
	}

	bytes := value * math.Pow(unit, float64(exp))
	if bytes > math.MaxInt64 {
		return 0, fmt.Errorf("byte size %q overflows", s)
	}
	return int64(bytes), nil
}

func exponent(suffix string) (int, bool) {
	s := strings.ToUpper(suffix)
	s = strings.TrimSuffix(s, "B")
	s = strings.TrimSuffix(s, "I")

	for i, p := range prefixes {
		if s == p {
			return i, true
		}
	}
	return 0, false
}
