// Package calendar turns normalized events into per-month bar segments for a
// year-long grid and stacks overlapping segments into lanes.
//
// Everything in this package is pure: no I/O, no shared state. It is safe to
// call concurrently on independent inputs.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"yearcal/internal/model"
)

const monthsPerYear = 12

// BuildMonthBars clips every event to year, splits it at month boundaries and
// assigns each resulting bar a lane within its month.
//
// Bars are returned grouped by source event (in input order), and by month
// within an event. Events that do not intersect the year, and events whose
// end is not after their start, contribute nothing. The result is never nil.
func BuildMonthBars(events []model.Event, year int) []model.MonthBar {
	bars := make([]model.MonthBar, 0, len(events))
	for _, ev := range events {
		bars = append(bars, clip(ev, year)...)
	}

	var byMonth [monthsPerYear][]int
	for i, b := range bars {
		byMonth[b.MonthIndex] = append(byMonth[b.MonthIndex], i)
	}
	for m := range byMonth {
		packLanes(bars, byMonth[m])
	}

	return bars
}

// clip intersects ev with [yearStart, yearEnd) and emits one bar per month
// touched, in month order. Lanes are left at zero.
func clip(ev model.Event, year int) []model.MonthBar {
	yearStart := monthStart(year, 0)
	yearEnd := monthStart(year, monthsPerYear)

	start := maxTime(wallClock(ev.Start), yearStart)
	end := minTime(wallClock(ev.End), yearEnd)

	if !end.After(yearStart) || !start.Before(yearEnd) || !end.After(start) {
		return nil
	}

	colorKey := ColorKey(ev)

	var out []model.MonthBar
	for m := 0; m < monthsPerYear; m++ {
		ms := monthStart(year, m)
		next := monthStart(year, m+1)

		segStart := maxTime(start, ms)
		segEnd := minTime(end, next)
		if !segEnd.After(ms) || !segStart.Before(next) {
			continue
		}

		startDay := segStart.Day()
		// Step back one instant so an end exactly at midnight stays on the
		// previous day.
		endDay := segEnd.Add(-time.Nanosecond).Day()

		out = append(out, model.MonthBar{
			Key:        barKey(ev.ID, year, m, startDay, endDay),
			Title:      ev.Title,
			MonthIndex: m,
			StartDay:   startDay,
			EndDay:     endDay,
			ColorKey:   colorKey,
		})
	}
	return out
}

func barKey(id string, year, monthIndex, startDay, endDay int) string {
	return fmt.Sprintf("%s-%d-%d-%d-%d", id, year, monthIndex, startDay, endDay)
}

// ColorKey returns the string a presentation layer hashes into a hue: the
// lower-cased first category, or the lower-cased title when the event has
// no first category.
func ColorKey(ev model.Event) string {
	if len(ev.Categories) > 0 && ev.Categories[0] != "" {
		return strings.ToLower(ev.Categories[0])
	}
	return strings.ToLower(ev.Title)
}
