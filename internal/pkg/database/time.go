package database

import (
	"fmt"
	"time"
)

// Fixed-width fraction keeps TEXT timestamps sortable.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders t the way timestamps are stored (UTC RFC3339).
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTime parses a stored timestamp.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("database: parse time %q: %w", s, err)
	}
	return t, nil
}
