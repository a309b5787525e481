package calendar

import "testing"

func TestDaysInMonth(t *testing.T) {
	t.Parallel()

	cases := []struct {
		year, month, want int
	}{
		{2025, 0, 31},
		{2025, 1, 28},
		{2024, 1, 29},
		{1900, 1, 28},
		{2000, 1, 29},
		{2025, 3, 30},
		{2025, 11, 31},
	}

	for _, tc := range cases {
		if got := DaysInMonth(tc.year, tc.month); got != tc.want {
			t.Fatalf("DaysInMonth(%d, %d): expected %d, got %d", tc.year, tc.month, tc.want, got)
		}
	}
}

func TestWeekdayOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		year, month, day, want int
	}{
		{2025, 0, 1, 3},   // Wednesday
		{2025, 0, 5, 0},   // Sunday
		{2025, 1, 1, 6},   // Saturday
		{2024, 1, 29, 4},  // Thursday
		{2025, 11, 31, 3}, // Wednesday
	}

	for _, tc := range cases {
		if got := WeekdayOf(tc.year, tc.month, tc.day); got != tc.want {
			t.Fatalf("WeekdayOf(%d, %d, %d): expected %d, got %d", tc.year, tc.month, tc.day, tc.want, got)
		}
	}
}
