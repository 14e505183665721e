package domain

import "time"

// DateLayout is the wire format for calendar dates. Events and availability
// carry dates only, no time component.
const DateLayout = "2006-01-02"

// ParseDate parses a calendar date in DateLayout, normalized to UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// TruncateDate drops the time component, normalizing to UTC midnight.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether two times fall on the same calendar date (UTC).
func SameDate(a, b time.Time) bool {
	return TruncateDate(a).Equal(TruncateDate(b))
}

// FormatDate renders a time as a calendar date in DateLayout.
func FormatDate(t time.Time) string {
	return TruncateDate(t).Format(DateLayout)
}
