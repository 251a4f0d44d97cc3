// Package calendar implements date-only arithmetic over a fixed Monday–Friday
// work week. Every value is a calendar date held as midnight UTC so that day
// stepping is never affected by time zones or daylight-saving transitions.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical textual form of a schedule date.
const DateLayout = "2006-01-02"

// Date builds a calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Normalize drops the time-of-day component of t, keeping the year, month and
// day as seen in t's own location.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// Parse reads a date string, ignoring any time component after a 'T' or a
// space ("2024-06-07T15:04:05Z" and "2024-06-07 09:00" both yield 2024-06-07).
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

// Format renders a date in DateLayout.
func Format(t time.Time) string {
	return t.Format(DateLayout)
}

// IsBusinessDay reports whether d falls on Monday through Friday.
func IsBusinessDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// NextBusinessDay returns the first business day strictly after d.
func NextBusinessDay(d time.Time) time.Time {
	next := Normalize(d).AddDate(0, 0, 1)
	for !IsBusinessDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// PreviousBusinessDay returns the last business day strictly before d.
func PreviousBusinessDay(d time.Time) time.Time {
	prev := Normalize(d).AddDate(0, 0, -1)
	for !IsBusinessDay(prev) {
		prev = prev.AddDate(0, 0, -1)
	}
	return prev
}

// AddBusinessDays moves n business days away from d (backwards when n is
// negative). With n == 0 the date is returned unchanged even on a weekend.
// Otherwise a weekend start is first snapped forward to the next business day
// and then only business days are counted.
func AddBusinessDays(d time.Time, n int) time.Time {
	cur := Normalize(d)
	if n == 0 {
		return cur
	}
	if !IsBusinessDay(cur) {
		cur = NextBusinessDay(cur)
	}

	step := 1
	if n < 0 {
		step = -1
		n = -n
	}
	for added := 0; added < n; {
		cur = cur.AddDate(0, 0, step)
		if IsBusinessDay(cur) {
			added++
		}
	}
	return cur
}

// BusinessDaysBetween counts the business days in [start, end] inclusive.
// It returns 0 when start is after end.
func BusinessDaysBetween(start, end time.Time) int {
	start, end = Normalize(start), Normalize(end)
	if start.After(end) {
		return 0
	}

	// Whole weeks contribute five days each; walk only the remainder.
	totalDays := int(end.Sub(start).Hours()/24) + 1
	count := (totalDays / 7) * 5
	cur := start.AddDate(0, 0, (totalDays/7)*7)
	for !cur.After(end) {
		if IsBusinessDay(cur) {
			count++
		}
		cur = cur.AddDate(0, 0, 1)
	}
	return count
}

// BusinessEndDate returns the last day of a task that starts on start and
// spans duration business days, the start counting as day one. A weekend
// start is snapped forward first. Non-positive durations return start.
func BusinessEndDate(start time.Time, duration int) time.Time {
	start = Normalize(start)
	if duration <= 0 {
		return start
	}
	if !IsBusinessDay(start) {
		start = NextBusinessDay(start)
	}
	return AddBusinessDays(start, duration-1)
}

// SnapForward returns d when it is a business day, otherwise the next one.
func SnapForward(d time.Time) time.Time {
	d = Normalize(d)
	if IsBusinessDay(d) {
		return d
	}
	return NextBusinessDay(d)
}
