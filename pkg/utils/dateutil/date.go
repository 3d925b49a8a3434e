// Package dateutil normalizes the loose date strings accepted on the command
// line into UTC day bounds.
package dateutil

import (
	"strings"
	"time"
)

const (
	dayLayout      = "2006-01-02"
	shortDayLayout = "2006-1-2"
)

// Parse accepts YYYY-MM-DD, YYYY/MM/DD or YYYYMMDD, with or without zero
// padding of month and day; anything after the date part is ignored. The
// result is midnight UTC of that day, or 23:59:59.000 UTC when endOfDay is
// set. ok is false for empty or malformed input, which callers treat as an
// absent bound.
func Parse(s string, endOfDay bool) (time.Time, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return time.Time{}, false
	}

	s = strings.ReplaceAll(s, "/", "-")
	if len(s) == 8 && isDigits(s) {
		s = s[:4] + "-" + s[4:6] + "-" + s[6:]
	}
	if len(s) > len(dayLayout) {
		s = s[:len(dayLayout)]
	}

	day, err := time.ParseInLocation(dayLayout, s, time.UTC)
	if err != nil {
		// month and day may come without zero padding, as in 2024-1-5
		if day, err = time.ParseInLocation(shortDayLayout, s, time.UTC); err != nil {
			return time.Time{}, false
		}
	}

	if endOfDay {
		return day.Add(24*time.Hour - time.Second), true
	}
	return day, true
}

// ParsePtr is Parse returning nil for an absent bound
func ParsePtr(s string, endOfDay bool) *time.Time {
	t, ok := Parse(s, endOfDay)
	if !ok {
		return nil
	}
	return &t
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
