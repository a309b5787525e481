package model

import "time"

// Event is a calendar event reduced to the fixed set of fields the year
// view needs, independent of its wire encoding. Values are treated as
// immutable once constructed.
type Event struct {
	// SourceID identifies the feed the event came from (config feed ID).
	SourceID string `json:"source_id,omitempty"`

	// ID is unique within a feed. When the source omits a UID the
	// normalizer fills in a deterministic synthetic key.
	ID string `json:"uid"`

	Title string `json:"title"`

	// Start / End are read as wall-clock values. End >= Start is not
	// guaranteed by upstream data.
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	AllDay bool `json:"all_day"`

	// Categories keeps source order; the first entry drives color grouping.
	Categories []string `json:"categories,omitempty"`
}

// MonthBar is the visible portion of one event within one calendar month.
type MonthBar struct {
	// Key is stable across calls for the same input and is used by the
	// presentation layer as a render identity.
	Key   string `json:"key"`
	Title string `json:"title"`

	MonthIndex int `json:"month_index"` // 0-11

	// StartDay / EndDay are 1-based and inclusive.
	StartDay int `json:"start_day"`
	EndDay   int `json:"end_day"`

	// Lane is the 0-based stacking slot within the month.
	Lane int `json:"lane"`

	ColorKey string `json:"color_key"`
}
