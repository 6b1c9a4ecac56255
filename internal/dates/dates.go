// Package dates parses the loosely formatted date strings found in note headers.
package dates

import (
	"strings"
	"time"
)

// Layouts tried after the two fixed formats, roughly the ISO-8601 shapes
// people actually write in front matter. Offsets are parsed but dropped:
// the wall clock is always reinterpreted in the caller's location.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	"20060102T150405",
	"20060102",
}

// Parse converts s into a point in time located in loc.
//
// It tries "YYYY-MM-DD HH:MM:SS", then "YYYYMMDDHHMMSS", then ISO-8601.
// The first layout that parses wins. ok is false when nothing matched,
// which callers treat as "no date here" rather than an error.
func Parse(s string, loc *time.Location) (t time.Time, ok bool) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", s, loc); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("20060102150405", s, loc); err == nil {
		return t, true
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return reanchor(t, loc), true
		}
	}
	return time.Time{}, false
}

// Format renders t as the canonical YYYY-MM-DD date.
func Format(t time.Time) string {
	return t.Format("2006-01-02")
}

// Later returns whichever of a and b is further in the future, a on ties.
func Later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

func reanchor(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
