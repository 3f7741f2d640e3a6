package dataprocessing

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the MM-DD-YY format used by every date column and range bound.
const DateLayout = "01-02-06"

var (
	// ErrInvalidDate is returned when a value is not a MM-DD-YY date
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvertedRange is returned when a range starts after it ends
	ErrInvertedRange = errors.New("range start is after range end")
)

// ParseDate parses a strict MM-DD-YY value. Surrounding whitespace is ignored.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if len(value) != len(DateLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

// FormatDate renders t as MM-DD-YY.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// InRange reports whether start <= date <= end. Any unparseable input yields false.
func InRange(date, start, end string) bool {
	r, err := NewDateRange(start, end)
	if err != nil {
		return false
	}
	return r.ContainsString(date)
}

// DateRange is an inclusive pair of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange parses both bounds as MM-DD-YY.
func NewDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, fmt.Errorf("range start: %w", err)
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, fmt.Errorf("range end: %w", err)
	}
	if s.After(e) {
		return DateRange{}, fmt.Errorf("%w: %s > %s", ErrInvertedRange, FormatDate(s), FormatDate(e))
	}
	return DateRange{Start: s, End: e}, nil
}

// Contains reports whether the calendar day of t, in t's own location,
// falls on or between the range bounds. The time of day is ignored.
func (r DateRange) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(r.Start) && !day.After(r.End)
}

// ContainsString parses value and checks it against the range.
// Malformed values are never contained.
func (r DateRange) ContainsString(value string) bool {
	t, err := ParseDate(value)
	if err != nil {
		return false
	}
	return r.Contains(t)
}

// StartString returns the start bound as MM-DD-YY.
func (r DateRange) StartString() string { return FormatDate(r.Start) }

// EndString returns the end bound as MM-DD-YY.
func (r DateRange) EndString() string { return FormatDate(r.End) }

func (r DateRange) String() string {
	return r.StartString() + " to " + r.EndString()
}
