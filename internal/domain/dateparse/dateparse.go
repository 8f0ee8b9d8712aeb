// Package dateparse parses the timestamp formats upstream services emit.
package dateparse

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDateParse is wrapped by every parse failure.
var ErrDateParse = errors.New("date parse failed")

// ParseError carries the rejected input.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %q", ErrDateParse.Error(), e.Input)
}

func (e *ParseError) Unwrap() error { return ErrDateParse }

// Layout groups, tried in order. Go accepts fractional seconds after the
// seconds field even when the layout omits them.
var (
	localLayouts = []string{ //nolint:gochecknoglobals // read-only
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}
	zonedLayouts = []string{ //nolint:gochecknoglobals // read-only
		time.RFC3339Nano,
		"2006-01-02T15:04Z07:00",
	}
	fallbackLayout = "2006-01-02 15:04:05"
)

// Parse returns the wall-clock time encoded in s, as a UTC time.Time.
//
// It tries an ISO local date-time, then an ISO date-time with offset (the
// offset is dropped, keeping the wall clock), then "yyyy-MM-dd HH:mm:ss".
func Parse(s string) (time.Time, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return time.Time{}, &ParseError{Input: s}
	}

	for _, layout := range localLayouts {
		if t, err := time.Parse(layout, in); err == nil {
			return t, nil
		}
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, in); err == nil {
			return wallClock(t), nil
		}
	}
	if t, err := time.Parse(fallbackLayout, in); err == nil {
		return t, nil
	}
	return time.Time{}, &ParseError{Input: s}
}

// DateLayout is the bare date accepted for range bounds.
const DateLayout = "2006-01-02"

// ParseBound parses a range bound from a query. It accepts everything Parse
// does plus a bare date, which covers the whole day: midnight for a start
// bound, the last instant of the day for an end bound.
func ParseBound(s string, end bool) (time.Time, error) {
	if t, err := Parse(s); err == nil {
		return t, nil
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ParseError{Input: s}
	}
	if end {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}

// MustParse is Parse for tests and constants. It panics on failure.
func MustParse(s string) time.Time {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
