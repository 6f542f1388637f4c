package abcxyz

import (
	"fmt"
	"strings"
	"time"
)

const monthLayout = "2006-01"

// ParseMonth accepts "YYYY-MM" or "YYYY-MM-DD" and returns the first day
// of that month in UTC.
func ParseMonth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) >= len("2006-01-02") {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	if t, err := time.Parse(monthLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006/01", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
}

// FormatMonth renders t as "YYYY-MM".
func FormatMonth(t time.Time) string {
	return t.UTC().Format(monthLayout)
}

// MonthRange returns every month label from start to end inclusive.
// It returns nil when end precedes start.
func MonthRange(start, end time.Time) []string {
	start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	if end.Before(start) {
		return nil
	}

	var months []string
	for t := start; !t.After(end); t = t.AddDate(0, 1, 0) {
		months = append(months, FormatMonth(t))
	}
	return months
}

// TrailingMonths returns the n months ending at end, oldest first.
func TrailingMonths(end time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	end = time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	return MonthRange(end.AddDate(0, -(n - 1), 0), end)
}
