// Package timestamp converts between client supplied ISO-8601 strings and the
// canonical UTC form used for storage and range comparison.
package timestamp

import (
	"errors"
	"time"
)

// canonicalLayout has a fixed width so that stored values sort
// lexicographically in chronological order.
const canonicalLayout = "2006-01-02T15:04:05.000000"

const utcSuffix = "+00:00"

// ErrParse is returned when a string is not a valid ISO-8601 date-time.
var ErrParse = errors.New("invalid ISO-8601 date-time")

// Layouts accepted by Parse, tried in order. Fractional seconds are accepted
// after the seconds field even though the layouts don't spell them out.
var layouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Parse parses an ISO-8601 date-time. A value without an offset is taken to
// be UTC. The result is always in UTC, truncated to microseconds.
//
// Input is not trimmed, and the hour must have two digits. A value whose UTC
// year falls outside 0000-9999 is rejected since Format could not render it
// in the fixed-width form.
func Parse(s string) (time.Time, error) {
	if len(s) < len("2006-01-02") {
		return time.Time{}, ErrParse
	}
	if len(s) > 10 {
		if s[10] == ' ' || s[10] == 't' {
			s = s[:10] + "T" + s[11:]
		}
		if len(s) < 13 || !isDigit(s[11]) || !isDigit(s[12]) {
			return time.Time{}, ErrParse
		}
	}

	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		t = normalize(t)
		if t.Year() < 0 || t.Year() > 9999 {
			return time.Time{}, ErrParse
		}
		return t, nil
	}
	return time.Time{}, ErrParse
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Now returns the current instant in UTC.
func Now() time.Time {
	return normalize(time.Now())
}

// Format renders t in the canonical form, e.g. 2025-07-19T11:00:00.000000+00:00.
func Format(t time.Time) string {
	return t.UTC().Format(canonicalLayout) + utcSuffix
}

func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
