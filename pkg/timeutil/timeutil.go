// Package timeutil provides UTC day-boundary helpers for the progression
// engine. Streaks and daily activity are computed on UTC calendar days so the
// math is the same regardless of the student's local timezone.
// No external dependencies - uses only standard library.
package timeutil

import "time"

// StartOfDay returns UTC midnight of the given time's day.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last nanosecond of the given time's UTC day.
func EndOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 999999999, time.UTC)
}

// DaysBetween returns the number of UTC calendar days from a to b.
// Same day = 0, b the day after a = 1, negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return DaysBetween(a, b) == 0
}

// IsYesterday reports whether t falls on the UTC day before now.
func IsYesterday(t, now time.Time) bool {
	return DaysBetween(t, now) == 1
}

// NextDailyRun returns the next occurrence of hh:mm UTC strictly after t.
// Used by the worker's daily schedules.
func NextDailyRun(t time.Time, hour, minute int) time.Time {
	u := t.UTC()
	next := time.Date(u.Year(), u.Month(), u.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(u) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
