// Package pipeline assembles the event list the grid is built from.
//
// Every subscribed feed is fetched, parsed and normalized. The result is
// either the union of all feeds or an error; a partial union is never
// handed to the bar builder.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yearcal/internal/feeds"
	"yearcal/internal/ics"
	appLog "yearcal/internal/log"
	"yearcal/internal/model"
)

// Collector fetches all subscribed feeds.
type Collector struct {
	store   feeds.Store
	fetcher *ics.Fetcher
	loc     *time.Location
}

// NewCollector returns a Collector reading subscriptions from store and
// normalizing events into loc.
func NewCollector(store feeds.Store, fetcher *ics.Fetcher, loc *time.Location) *Collector {
	if loc == nil {
		loc = time.Local
	}
	return &Collector{store: store, fetcher: fetcher, loc: loc}
}

// Collect returns the events of every subscribed feed, feeds in
// subscription order and events in feed order. No subscriptions yield an
// empty list.
func (c *Collector) Collect(ctx context.Context) ([]model.Event, error) {
	urls, err := c.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load feeds: %w", err)
	}
	if len(urls) == 0 {
		return []model.Event{}, nil
	}

	sources := make([]ics.Source, 0, len(urls))
	for _, u := range urls {
		sources = append(sources, ics.Source{ID: u, URL: u})
	}

	start := time.Now()
	results, errs := c.fetcher.FetchAll(ctx, sources)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	events := make([]model.Event, 0)
	for _, res := range results {
		parsed, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			return nil, err
		}
		events = append(events, ics.Normalize(parsed, c.loc)...)
	}

	appLog.Info("feeds collected",
		"feed_count", len(results),
		"event_count", len(events),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return events, nil
}
