// Package dates holds calendar-date helpers. A date is a time.Time at
// midnight UTC; the wall-clock and zone parts are never meaningful.
package dates

import (
	"fmt"
	"time"
)

// Layout is the wire and storage format for a calendar date.
const Layout = "2006-01-02"

// MonthLayout is the format for a calendar month.
const MonthLayout = "2006-01"

// Of returns the calendar date of t, dropping clock and zone.
func Of(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// New builds a calendar date.
func New(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Parse reads a YYYY-MM-DD date.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// ParseMonth reads a YYYY-MM month and returns its first day.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return t, nil
}

// Format renders a date as YYYY-MM-DD. The zero time renders as "".
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(Layout)
}

// AddDays moves a date by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// DaysBetween returns the number of days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Of(b).Sub(Of(a)).Hours() / 24)
}

// IsWeekend reports whether t falls on a Friday, Saturday or Sunday.
// Friday counts as a travel day for group trips.
func IsWeekend(t time.Time) bool {
	switch t.Weekday() {
	case time.Friday, time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// FirstOfMonth returns the first day of t's month.
func FirstOfMonth(t time.Time) time.Time {
	return New(t.Year(), t.Month(), 1)
}

// LastOfMonth returns the last day of t's month.
func LastOfMonth(t time.Time) time.Time {
	return FirstOfMonth(t).AddDate(0, 1, -1)
}

// StartOfWeek returns the Sunday on or before t.
func StartOfWeek(t time.Time) time.Time {
	return AddDays(Of(t), -int(t.Weekday()))
}

// EndOfWeek returns the Saturday on or after t.
func EndOfWeek(t time.Time) time.Time {
	return AddDays(Of(t), int(time.Saturday-t.Weekday()))
}
