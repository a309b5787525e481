package calendar

import "time"

// DaysInMonth returns the number of days in the given month.
// monthIndex is 0-based (0 = January).
func DaysInMonth(year, monthIndex int) int {
	// Day 0 of the following month normalizes to the last day of this one.
	return time.Date(year, time.Month(monthIndex+2), 0, 0, 0, 0, 0, time.UTC).Day()
}

// WeekdayOf returns the weekday of the given date, 0 = Sunday .. 6 = Saturday.
func WeekdayOf(year, monthIndex, day int) int {
	return int(time.Date(year, time.Month(monthIndex+1), day, 0, 0, 0, 0, time.UTC).Weekday())
}

// monthStart returns 00:00 on the first day of monthIndex in the implicit
// wall-clock zone. monthIndex 12 is January of the following year.
func monthStart(year, monthIndex int) time.Time {
	return time.Date(year, time.Month(monthIndex+1), 1, 0, 0, 0, 0, time.UTC)
}

// wallClock reads t's calendar fields in its own location and rebuilds the
// same wall-clock reading in UTC, so that all clipping arithmetic happens in
// one zone without DST gaps.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
