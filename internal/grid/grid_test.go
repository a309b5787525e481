package grid

import (
	"math"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"yearcal/internal/calendar"
	"yearcal/internal/model"
)

func TestHueKnownValues(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"":   0,
		"a":  97,
		"ab": 225,
		// 119, 111, 114, 107 -> 3655441
		"work": 1,
		// surrogate pair 0xD83D 0xDE00
		"😀": 259,
	}
	for key, want := range cases {
		if got := Hue(key); got != want {
			t.Fatalf("Hue(%q): expected %d, got %d", key, want, got)
		}
	}
}

func TestHueStaysInRangeForLongKeys(t *testing.T) {
	t.Parallel()

	key := strings.Repeat("quarterly planning offsite ", 40)
	h := Hue(key)
	if h < 0 || h >= 360 {
		t.Fatalf("hue out of range: %d", h)
	}
	if Hue(key) != h {
		t.Fatalf("hue not deterministic")
	}
}

func TestColorMatchesHue(t *testing.T) {
	t.Parallel()

	hex := regexp.MustCompile(`^#[0-9a-f]{6}$`)
	for _, key := range []string{"a", "work", "holiday", "deep work"} {
		s := Color(key)
		if !hex.MatchString(s) {
			t.Fatalf("Color(%q): unexpected format %q", key, s)
		}

		c, err := colorful.Hex(s)
		if err != nil {
			t.Fatalf("Color(%q): %v", key, err)
		}
		h, _, _ := c.Hsl()
		if diff := math.Abs(h - float64(Hue(key))); diff > 1.5 && diff < 358.5 {
			t.Fatalf("Color(%q): hue %.1f, expected about %d", key, h, Hue(key))
		}
	}
}

func sampleBars() []model.MonthBar {
	events := []model.Event{
		{
			ID:     "sprint",
			Title:  "Sprint",
			Start:  time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
			End:    time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC),
			AllDay: true,
		},
		{
			ID:     "trip",
			Title:  "Trip",
			Start:  time.Date(2025, 1, 28, 0, 0, 0, 0, time.UTC),
			End:    time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC),
			AllDay: true,
		},
	}
	return calendar.BuildMonthBars(events, 2025)
}

func TestRenderPlain(t *testing.T) {
	out := Render(2025, sampleBars(), Options{Today: time.Date(2025, 1, 3, 12, 0, 0, 0, time.UTC)})
	lines := strings.Split(out, "\n")

	// year, day header, 12 weekday rows, one lane in Jan and one in Feb,
	// trailing newline
	if len(lines) != 17 {
		t.Fatalf("expected 17 lines, got %d:\n%s", len(lines), out)
	}
	if lines[0] != "2025" {
		t.Fatalf("unexpected title line %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "       1  2  3") || !strings.HasSuffix(lines[1], " 31") {
		t.Fatalf("unexpected day header %q", lines[1])
	}

	// 2025-01-01 is a Wednesday.
	if !strings.HasPrefix(lines[2], "Jan   We Th*Fr Sa Su Mo") {
		t.Fatalf("unexpected January weekday row %q", lines[2])
	}

	janLane := lines[3]
	sprintAt := strings.Index(janLane, "[Sprint")
	if sprintAt != labelWidth+5*cellWidth {
		t.Fatalf("expected sprint at column %d, got %d in %q", labelWidth+5*cellWidth, sprintAt, janLane)
	}
	if !strings.HasSuffix(janLane, "[Trip------]") {
		t.Fatalf("expected trip at the end of the January lane, got %q", janLane)
	}
	sprint := janLane[sprintAt : strings.Index(janLane, "]")+1]
	if len(sprint) != 12*cellWidth {
		t.Fatalf("expected sprint width %d, got %d (%q)", 12*cellWidth, len(sprint), sprint)
	}

	if !strings.HasPrefix(lines[4], "Feb") {
		t.Fatalf("expected February weekday row, got %q", lines[4])
	}
	if lines[5] != strings.Repeat(" ", labelWidth)+"[Trip---]" {
		t.Fatalf("unexpected February lane %q", lines[5])
	}
}

func TestRenderSkipsCollidingBars(t *testing.T) {
	bars := []model.MonthBar{
		{Title: "A", MonthIndex: 2, StartDay: 1, EndDay: 5, Lane: 0},
		{Title: "B", MonthIndex: 2, StartDay: 3, EndDay: 4, Lane: 0},
	}
	out := Render(2025, bars, Options{})
	if strings.Contains(out, "[B") {
		t.Fatalf("expected colliding bar to be skipped:\n%s", out)
	}
	if !strings.Contains(out, "[A") {
		t.Fatalf("expected first bar to be drawn:\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"Sprint", 10, "Sprint"},
		{"Sprint", 6, "Sprint"},
		{"Sprint", 4, "Spr…"},
		{"Sprint", 1, "S"},
		{"Sprint", 0, ""},
		{"Übung", 3, "Üb…"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.n); got != tc.want {
			t.Fatalf("truncate(%q, %d): expected %q, got %q", tc.in, tc.n, tc.want, got)
		}
	}
}
