package utils

import (
	"strings"
	"time"
)

// dateLayouts are the registry date shapes, most specific first.
var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006-01",
	"January 2, 2006",
	"January 2006",
	"Jan 2, 2006",
	"Jan 2006",
	"2006",
}

// ParseDate parses a registry date string. Partial dates resolve to the
// first day of the month or year. Anything unparsable yields nil.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &t
		}
	}
	return nil
}

// FormatDate renders a date as YYYY-MM-DD, or nil when absent, so the JSON
// encoder emits null.
func FormatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.DateOnly)
}

// InRange reports whether t lies within the inclusive [from, to] range.
// A nil bound is open. A nil t is only in range when both bounds are nil.
func InRange(t, from, to *time.Time) bool {
	if from == nil && to == nil {
		return true
	}
	if t == nil {
		return false
	}
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}
