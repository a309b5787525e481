package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "yearcal/internal/log"
)

// ParsedEvent is a VEVENT as read from the wire, before defaults and the
// display zone are applied by Normalize.
type ParsedEvent struct {
	Source Source

	// Index is the VEVENT's position in the feed; it seeds the synthetic
	// id when UID is missing.
	Index int

	UID     string
	Summary string

	Start  time.Time
	End    time.Time
	AllDay bool

	// Floating is set for date-times without TZID or UTC suffix; their
	// wall clock is kept as-is in the display zone.
	Floating bool

	Categories []string
}

// ParseICS parses a single ICS payload into a list of ParsedEvent.
//
//   - A payload that cannot be read as a calendar fails with ErrParse.
//   - A VEVENT without a usable DTSTART is logged and skipped; the rest of
//     the feed is still returned.
//   - All-day events are detected from VALUE=DATE or a date-only DTSTART.
//   - RRULE / EXDATE / RECURRENCE-ID are not interpreted; every VEVENT
//     becomes exactly one event.
func ParseICS(src Source, body []byte) ([]ParsedEvent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, parseFailure(errors.New("empty ICS body"))
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, parseFailure(err)
	}

	events := make([]ParsedEvent, 0)
	skipped := 0
	for i, comp := range cal.Events() {
		ev, perr := parseVEvent(src, i, comp)
		if perr != nil {
			skipped++
			appLog.Error("ics vevent dropped", perr, "id", src.ID, "url", redactURL(src.URL), "index", i)
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "id", src.ID, "url", redactURL(src.URL), "event_count", len(events), "skipped", skipped)
	return events, nil
}

func parseVEvent(src Source, index int, ve *ical.VEvent) (ParsedEvent, error) {
	out := ParsedEvent{Source: src, Index: index}

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = strings.TrimSpace(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = strings.TrimSpace(p.Value)
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || strings.TrimSpace(dtStart.Value) == "" {
		return out, errors.New("missing DTSTART")
	}
	out.AllDay = isDateValue(dtStart)

	if out.AllDay {
		start, err := parseICSDate(dtStart.Value)
		if err != nil {
			return out, fmt.Errorf("DTSTART: %w", err)
		}
		out.Start = start
	} else {
		out.Floating = isFloating(dtStart)
		start, err := dateTimeValue(dtStart, out.Floating, ve.GetStartAt)
		if err != nil {
			return out, fmt.Errorf("DTSTART: %w", err)
		}
		out.Start = start
	}

	end, err := eventEnd(ve, out)
	if err != nil {
		return out, err
	}
	out.End = end

	for _, p := range ve.GetProperties(ical.ComponentPropertyCategories) {
		for _, c := range strings.Split(p.Value, ",") {
			if c = strings.TrimSpace(c); c != "" {
				out.Categories = append(out.Categories, c)
			}
		}
	}

	return out, nil
}

// eventEnd resolves DTEND, then DURATION. Without either an all-day event
// lasts one day and a timed event ends where it starts.
func eventEnd(ve *ical.VEvent, ev ParsedEvent) (time.Time, error) {
	if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil && strings.TrimSpace(dtEnd.Value) != "" {
		if ev.AllDay || isDateValue(dtEnd) {
			end, err := parseICSDate(dtEnd.Value)
			if err != nil {
				return time.Time{}, fmt.Errorf("DTEND: %w", err)
			}
			return end, nil
		}
		end, err := dateTimeValue(dtEnd, ev.Floating, ve.GetEndAt)
		if err != nil {
			return time.Time{}, fmt.Errorf("DTEND: %w", err)
		}
		return end, nil
	}

	if p := ve.GetProperty(ical.ComponentPropertyDuration); p != nil && strings.TrimSpace(p.Value) != "" {
		d, err := parseICSDuration(p.Value)
		if err != nil {
			return time.Time{}, fmt.Errorf("DURATION: %w", err)
		}
		return ev.Start.Add(d), nil
	}

	if ev.AllDay {
		return ev.Start.AddDate(0, 0, 1), nil
	}
	return ev.Start, nil
}

// dateTimeValue reads a DATE-TIME property. Floating values are parsed
// directly; zoned ones go through the library, which resolves TZID and
// VTIMEZONE, with a plain parse as fallback.
func dateTimeValue(p *ical.IANAProperty, floating bool, resolve func() (time.Time, error)) (time.Time, error) {
	if floating {
		return parseICSTime(p.Value)
	}
	t, err := resolve()
	if err != nil {
		return parseICSTime(p.Value)
	}
	return t, nil
}

// isFloating reports a DATE-TIME with neither TZID nor a trailing Z.
func isFloating(p *ical.IANAProperty) bool {
	if strings.HasSuffix(strings.TrimSpace(p.Value), "Z") {
		return false
	}
	if params := p.ICalParameters; params != nil {
		if tz, ok := params["TZID"]; ok && len(tz) > 0 && tz[0] != "" {
			return false
		}
	}
	return true
}

// isDateValue reports whether a DTSTART/DTEND carries a date without time:
// VALUE=DATE, or a value with no 'T'.
func isDateValue(p *ical.IANAProperty) bool {
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}

// parseICSDate parses a YYYYMMDD value as midnight UTC. Only the calendar
// fields matter; Normalize rebuilds the date in the display zone.
func parseICSDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if i := strings.IndexByte(v, 'T'); i >= 0 {
		v = v[:i]
	}
	return time.Parse("20060102", v)
}

// parseICSTime parses a basic ICS date-time when the library could not.
// Floating times are read in UTC.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.Parse("20060102T150405", v)
	}
	return time.Parse("20060102", v)
}

// parseICSDuration parses RFC 5545 durations such as "P1D", "PT1H30M",
// "P2W" or "-PT15M".
func parseICSDuration(v string) (time.Duration, error) {
	s := strings.ToUpper(strings.TrimSpace(v))
	sign := time.Duration(1)
	switch {
	case strings.HasPrefix(s, "-"):
		sign, s = -1, s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") || len(s) < 2 {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	s = s[1:]

	var total time.Duration
	inTime := false
	num := ""
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'T':
			if inTime || num != "" {
				return 0, fmt.Errorf("invalid duration %q", v)
			}
			inTime = true
		default:
			if num == "" {
				return 0, fmt.Errorf("invalid duration %q", v)
			}
			n, err := strconv.Atoi(num)
			if err != nil {
				return 0, err
			}
			num = ""
			unit, err := durationUnit(r, inTime)
			if err != nil {
				return 0, fmt.Errorf("invalid duration %q: %w", v, err)
			}
			total += time.Duration(n) * unit
		}
	}
	if num != "" {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return sign * total, nil
}

func durationUnit(r rune, inTime bool) (time.Duration, error) {
	switch {
	case !inTime && r == 'W':
		return 7 * 24 * time.Hour, nil
	case !inTime && r == 'D':
		return 24 * time.Hour, nil
	case inTime && r == 'H':
		return time.Hour, nil
	case inTime && r == 'M':
		return time.Minute, nil
	case inTime && r == 'S':
		return time.Second, nil
	}
	return 0, fmt.Errorf("unexpected unit %q", r)
}
