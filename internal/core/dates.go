package core

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for calendar days.
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar days. A zero From or To is unbounded.
type DateRange struct {
	From time.Time
	To   time.Time
}

// UpTo returns the range of every day up to and including d.
func UpTo(d time.Time) DateRange {
	return DateRange{To: Day(d)}
}

// Between returns the inclusive range [from, to].
func Between(from, to time.Time) DateRange {
	return DateRange{From: Day(from), To: Day(to)}
}

// Contains reports whether day d falls within the range. Both ends are inclusive.
func (r DateRange) Contains(d time.Time) bool {
	d = Day(d)
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}

// Day truncates t to its calendar day at 00:00 UTC, keeping the wall-clock date.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// MonthRange returns the first and last day of a calendar month.
func MonthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

func dayBefore(d time.Time) time.Time {
	return Day(d).AddDate(0, 0, -1)
}
