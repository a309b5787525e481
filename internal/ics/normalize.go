package ics

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	appLog "yearcal/internal/log"
	"yearcal/internal/model"
)

// DefaultTitle is used for events without a SUMMARY.
const DefaultTitle = "Untitled"

// Normalize converts parsed events into model.Event values in the display
// location. Timed instants are converted with In(loc); all-day dates keep
// their calendar date at midnight in loc. A nil loc means time.Local.
func Normalize(parsed []ParsedEvent, loc *time.Location) []model.Event {
	if loc == nil {
		loc = time.Local
	}

	out := make([]model.Event, 0, len(parsed))
	for _, p := range parsed {
		ev := model.Event{
			SourceID: p.Source.ID,
			ID:       p.UID,
			Title:    p.Summary,
			AllDay:   p.AllDay,
		}
		if ev.ID == "" {
			ev.ID = syntheticID(p.Source, p.Index)
		}
		if ev.Title == "" {
			ev.Title = DefaultTitle
		}
		if len(p.Categories) > 0 {
			ev.Categories = append([]string(nil), p.Categories...)
		}

		switch {
		case p.AllDay:
			ev.Start = dateIn(p.Start, loc)
			ev.End = dateIn(p.End, loc)
		case p.Floating:
			ev.Start = wallClockIn(p.Start, loc)
			ev.End = wallClockIn(p.End, loc)
		default:
			ev.Start = p.Start.In(loc)
			ev.End = p.End.In(loc)
		}

		out = append(out, ev)
	}
	return out
}

// FetchAndNormalize retrieves one feed and returns its normalized events.
// Every failure is a *FetchError.
func FetchAndNormalize(ctx context.Context, f *Fetcher, feedURL string, loc *time.Location) ([]model.Event, error) {
	src := Source{ID: feedURL, URL: feedURL}
	res, err := f.FetchOne(ctx, src)
	if err != nil {
		return nil, err
	}

	parsed, err := ParseICS(src, res.Body)
	if err != nil {
		return nil, err
	}

	events := Normalize(parsed, loc)
	appLog.Debug("ics feed normalized", "url", redactURL(feedURL), "event_count", len(events), "from_cache", res.FromCache)
	return events, nil
}

// syntheticID derives a stable name-based UUID from the feed and the
// VEVENT position, so reloading an unchanged feed yields the same ids.
func syntheticID(src Source, index int) string {
	name := src.URL + "#" + strconv.Itoa(index)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func dateIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func wallClockIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
