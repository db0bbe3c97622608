package entities

import "time"

// DateLayout is the canonical local-calendar day format. Every comparison
// against completed_dates / excluded_dates and every synthetic instance id
// goes through this layout; formatting a due date any other way reintroduces
// timezone off-by-one-day bugs.
const DateLayout = "2006-01-02"

// Midnight normalizes t to 00:00:00 in its own location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DateString formats t as a canonical calendar-day string.
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDateString parses a canonical calendar-day string in the local zone.
func ParseDateString(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DateString(a) == DateString(b)
}
