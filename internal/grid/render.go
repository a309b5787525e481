package grid

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"yearcal/internal/calendar"
	"yearcal/internal/model"
)

const (
	cellWidth  = 3
	labelWidth = 5
	maxDays    = 31
)

var (
	MonthLabels   = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	WeekdayLabels = [7]string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}
)

var (
	styleYear    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	styleMonth   = lipgloss.NewStyle().Bold(true)
	styleHeader  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleWeekend = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	styleToday   = lipgloss.NewStyle().Reverse(true).Bold(true)
)

// Options controls Render.
type Options struct {
	// Color enables ANSI styling; bars get their hue as background.
	Color bool
	// Today, when inside the rendered year, is marked with '*'.
	Today time.Time
}

// Render draws the year as one block per month: a weekday row followed by
// one row per lane. Bars whose days collide with an earlier bar in the same
// lane are not drawn.
func Render(year int, bars []model.MonthBar, opts Options) string {
	byMonth := make([][]model.MonthBar, 12)
	for _, b := range bars {
		if b.MonthIndex < 0 || b.MonthIndex > 11 {
			continue
		}
		byMonth[b.MonthIndex] = append(byMonth[b.MonthIndex], b)
	}

	var sb strings.Builder
	sb.WriteString(paint(opts, styleYear, strconv.Itoa(year)))
	sb.WriteByte('\n')

	header := strings.Repeat(" ", labelWidth)
	for d := 1; d <= maxDays; d++ {
		header += fmt.Sprintf("%*d", cellWidth, d)
	}
	sb.WriteString(paint(opts, styleHeader, header))
	sb.WriteByte('\n')

	for m := 0; m < 12; m++ {
		sb.WriteString(weekdayRow(year, m, opts))
		sb.WriteByte('\n')

		lanes := calendar.LaneCount(byMonth[m], m)
		for lane := 0; lane < lanes; lane++ {
			sb.WriteString(laneRow(byMonth[m], lane, opts))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func weekdayRow(year, monthIndex int, opts Options) string {
	var sb strings.Builder
	sb.WriteString(paint(opts, styleMonth, padRight(MonthLabels[monthIndex], labelWidth)))

	isThisMonth := opts.Today.Year() == year && int(opts.Today.Month())-1 == monthIndex
	for d := 1; d <= calendar.DaysInMonth(year, monthIndex); d++ {
		wd := calendar.WeekdayOf(year, monthIndex, d)
		label := WeekdayLabels[wd]

		switch {
		case isThisMonth && d == opts.Today.Day():
			sb.WriteString(paint(opts, styleToday, "*"+label))
		case wd == 0 || wd == 6:
			sb.WriteString(paint(opts, styleWeekend, " "+label))
		default:
			sb.WriteString(" " + label)
		}
	}
	return sb.String()
}

func laneRow(monthBars []model.MonthBar, lane int, opts Options) string {
	inLane := make([]model.MonthBar, 0, len(monthBars))
	for _, b := range monthBars {
		if b.Lane == lane {
			inLane = append(inLane, b)
		}
	}
	sort.SliceStable(inLane, func(i, j int) bool { return inLane[i].StartDay < inLane[j].StartDay })

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", labelWidth))

	next := 1
	for _, b := range inLane {
		if b.StartDay < next || b.EndDay < b.StartDay {
			continue
		}
		sb.WriteString(strings.Repeat(" ", (b.StartDay-next)*cellWidth))
		sb.WriteString(segment(b, opts))
		next = b.EndDay + 1
	}
	return strings.TrimRight(sb.String(), " ")
}

func segment(b model.MonthBar, opts Options) string {
	width := (b.EndDay - b.StartDay + 1) * cellWidth
	if !opts.Color {
		inner := padRightWith(truncate(b.Title, width-2), width-2, '-')
		return "[" + inner + "]"
	}
	style := lipgloss.NewStyle().
		Background(lipgloss.Color(Color(b.ColorKey))).
		Foreground(lipgloss.Color("#ffffff")).
		Bold(true)
	return style.Render(padRight(" "+truncate(b.Title, width-1), width))
}

func paint(opts Options, style lipgloss.Style, s string) string {
	if !opts.Color {
		return s
	}
	return style.Render(s)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return string(r[:1])
	}
	return string(r[:n-1]) + "…"
}

func padRight(s string, n int) string {
	return padRightWith(s, n, ' ')
}

func padRightWith(s string, n int, fill rune) string {
	if l := len([]rune(s)); l < n {
		return s + strings.Repeat(string(fill), n-l)
	}
	return s
}
