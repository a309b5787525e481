package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"yearcal/internal/calendar"
	"yearcal/internal/grid"
	appLog "yearcal/internal/log"
	"yearcal/internal/model"
)

// Layout of the year page in CSS pixels.
const (
	labelPx    = 72
	dayPx      = 44
	laneTopPx  = 22
	lanePx     = 20
	minRowPx   = 44
	yearsShown = 7
)

//go:embed templates/year.html
var templateFS embed.FS

var yearTemplate = template.Must(template.ParseFS(templateFS, "templates/year.html"))

type pageView struct {
	Year      int
	Years     []int
	Error     string
	Days      []int
	Months    []monthView
	GridWidth int
	// TodayLeft is the x offset of the today line, or -1.
	TodayLeft int
}

type monthView struct {
	Label  string
	Height int
	Days   []dayView
	Bars   []barView
}

type dayView struct {
	Day     int
	Exists  bool
	Weekday string
	Weekend bool
	Today   bool
}

type barView struct {
	Key     string
	Title   string
	Tooltip string
	Left    int
	Width   int
	Top     int
	Color   string
}

// handleYearPage renders the year grid. Feed failures are shown in the page
// instead of failing the request so the grid stays usable.
//
// GET /?year=2025
func (s *Server) handleYearPage(w http.ResponseWriter, r *http.Request) {
	year, ok := s.requestYear(r)
	if !ok {
		http.Error(w, "year must be between 1 and 9999", http.StatusBadRequest)
		return
	}

	var (
		bars    []model.MonthBar
		message string
	)
	events, err := s.deps.Events.Events(r.Context())
	if err != nil {
		appLog.Error("year page: feeds could not be assembled", err, "year", year)
		message = loadFailureReason(err)
	} else {
		bars = calendar.BuildMonthBars(events, year)
	}

	view := buildPageView(year, bars, s.deps.Now().In(s.deps.Location))
	view.Error = message

	var buf bytes.Buffer
	if err := yearTemplate.Execute(&buf, view); err != nil {
		appLog.Error("year page: template failed", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func buildPageView(year int, bars []model.MonthBar, now time.Time) pageView {
	view := pageView{
		Year:      year,
		GridWidth: labelPx + 31*dayPx,
		TodayLeft: -1,
	}

	thisYear := now.Year()
	for y := thisYear - yearsShown/2; y <= thisYear+yearsShown/2; y++ {
		view.Years = append(view.Years, y)
	}
	if year < view.Years[0] || year > view.Years[len(view.Years)-1] {
		view.Years = append(view.Years, year)
	}
	for d := 1; d <= 31; d++ {
		view.Days = append(view.Days, d)
	}

	isThisYear := thisYear == year
	if isThisYear {
		view.TodayLeft = labelPx + (now.Day()-1)*dayPx + dayPx/2
	}

	byMonth := make([][]model.MonthBar, 12)
	for _, b := range bars {
		byMonth[b.MonthIndex] = append(byMonth[b.MonthIndex], b)
	}

	for m := 0; m < 12; m++ {
		mv := monthView{Label: grid.MonthLabels[m]}

		dim := calendar.DaysInMonth(year, m)
		for d := 1; d <= 31; d++ {
			dv := dayView{Day: d, Exists: d <= dim}
			if dv.Exists {
				wd := calendar.WeekdayOf(year, m, d)
				dv.Weekday = grid.WeekdayLabels[wd]
				dv.Weekend = wd == 0 || wd == 6
				dv.Today = isThisYear && int(now.Month())-1 == m && now.Day() == d
			}
			mv.Days = append(mv.Days, dv)
		}

		for _, b := range byMonth[m] {
			mv.Bars = append(mv.Bars, barView{
				Key:     b.Key,
				Title:   b.Title,
				Tooltip: fmt.Sprintf("%s (%s %d–%d)", b.Title, grid.MonthLabels[m], b.StartDay, b.EndDay),
				Left:    labelPx + (b.StartDay-1)*dayPx + 2,
				Width:   (b.EndDay-b.StartDay+1)*dayPx - 4,
				Top:     laneTopPx + b.Lane*lanePx,
				Color:   grid.Color(b.ColorKey),
			})
		}

		mv.Height = minRowPx
		if h := laneTopPx + calendar.LaneCount(byMonth[m], m)*lanePx + 4; h > mv.Height {
			mv.Height = h
		}
		view.Months = append(view.Months, mv)
	}
	return view
}
