package utils

import (
	"fmt"
	"time"
)

// FormatCents renders an amount in cents as "units.cc", e.g. 450000 -> "4500.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ParseDate converts a yyyy-mm-dd string into midnight UTC of that day.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected yyyy-mm-dd", raw)
	}
	return t, nil
}

// FormatDate is the inverse of ParseDate.
func FormatDate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
