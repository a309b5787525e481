package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"yearcal/internal/calendar"
	"yearcal/internal/feeds"
	"yearcal/internal/ics"
	appLog "yearcal/internal/log"
	"yearcal/internal/model"
)

const maxFeedRequestBytes = 16 << 10

type eventsResponse struct {
	Events []model.Event `json:"events"`
}

type barsResponse struct {
	Year int              `json:"year"`
	Bars []model.MonthBar `json:"bars"`
}

type feedsResponse struct {
	Feeds []string `json:"feeds"`
}

type addFeedRequest struct {
	URL string `json:"url"`
}

// handleICS fetches and normalizes one feed.
//
// GET /api/ics?url=https://...
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	feedURL := r.URL.Query().Get("url")

	events, err := ics.FetchAndNormalize(r.Context(), s.deps.Fetcher, feedURL, s.deps.Location)
	if err != nil {
		var fe *ics.FetchError
		if errors.As(err, &fe) {
			writeError(w, fe.HTTPStatus(), fe.Reason)
			return
		}
		appLog.Error("api ics: unexpected failure", err)
		writeError(w, http.StatusInternalServerError, "Parse error.")
		return
	}

	writeJSON(w, http.StatusOK, eventsResponse{Events: events})
}

// handleBars builds the month bars of all subscribed feeds for a year.
//
// GET /api/bars?year=2025
func (s *Server) handleBars(w http.ResponseWriter, r *http.Request) {
	year, ok := s.requestYear(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "year must be between 1 and 9999")
		return
	}

	events, err := s.deps.Events.Events(r.Context())
	if err != nil {
		appLog.Error("api bars: feeds could not be assembled", err, "year", year)
		writeError(w, http.StatusBadGateway, loadFailureReason(err))
		return
	}

	writeJSON(w, http.StatusOK, barsResponse{
		Year: year,
		Bars: calendar.BuildMonthBars(events, year),
	})
}

func (s *Server) handleListFeeds(w http.ResponseWriter, r *http.Request) {
	urls, err := s.deps.Subscriptions.List(r.Context())
	if err != nil {
		appLog.Error("api feeds: list failed", err)
		writeError(w, http.StatusInternalServerError, "failed to load feeds")
		return
	}
	writeJSON(w, http.StatusOK, feedsResponse{Feeds: urls})
}

// handleAddFeed subscribes to a feed.
//
// POST /api/feeds {"url": "https://..."}
func (s *Server) handleAddFeed(w http.ResponseWriter, r *http.Request) {
	var req addFeedRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxFeedRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	urls, err := s.deps.Subscriptions.Add(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, feeds.ErrEmptyURL) || errors.Is(err, feeds.ErrNotHTTPS) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		appLog.Error("api feeds: add failed", err)
		writeError(w, http.StatusInternalServerError, "failed to save feeds")
		return
	}

	s.deps.OnFeedsChanged()
	writeJSON(w, http.StatusOK, feedsResponse{Feeds: urls})
}

// handleRemoveFeed unsubscribes from a feed.
//
// DELETE /api/feeds?url=https://...
func (s *Server) handleRemoveFeed(w http.ResponseWriter, r *http.Request) {
	urls, err := s.deps.Subscriptions.Remove(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		appLog.Error("api feeds: remove failed", err)
		writeError(w, http.StatusInternalServerError, "failed to save feeds")
		return
	}

	s.deps.OnFeedsChanged()
	writeJSON(w, http.StatusOK, feedsResponse{Feeds: urls})
}

// loadFailureReason picks a message safe to show: the reason of the first
// classified feed failure, or a generic one.
func loadFailureReason(err error) string {
	var fe *ics.FetchError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return "Failed to load calendars."
}
