package capture

import (
	"context"
	"errors"
	"testing"
)

func TestYearURL(t *testing.T) {
	cases := []struct {
		opts    CaptureOptions
		want    string
		wantErr bool
	}{
		{CaptureOptions{BaseURL: "http://127.0.0.1:8080", Year: 2025}, "http://127.0.0.1:8080/?year=2025", false},
		{CaptureOptions{BaseURL: "http://127.0.0.1:8080/api/bars?year=1"}, "http://127.0.0.1:8080/", false},
		{CaptureOptions{BaseURL: "https://cal.example", Year: 1999}, "https://cal.example/?year=1999", false},
		{CaptureOptions{BaseURL: "file:///tmp/x.html"}, "", true},
		{CaptureOptions{BaseURL: "://bad"}, "", true},
		{CaptureOptions{}, "", true},
	}

	for _, tc := range cases {
		got, err := YearURL(tc.opts)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("YearURL(%q): expected error, got %q", tc.opts.BaseURL, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("YearURL(%q): %v", tc.opts.BaseURL, err)
		}
		if got != tc.want {
			t.Fatalf("YearURL(%q): expected %q, got %q", tc.opts.BaseURL, tc.want, got)
		}
	}
}

func TestCaptureYearPNGValidatesOptions(t *testing.T) {
	ctx := context.Background()

	if err := CaptureYearPNG(ctx, CaptureOptions{OutputPath: "out.png"}); !errors.Is(err, ErrNoBaseURL) {
		t.Fatalf("expected ErrNoBaseURL, got %v", err)
	}
	if err := CaptureYearPNG(ctx, CaptureOptions{BaseURL: "http://127.0.0.1:1"}); !errors.Is(err, ErrNoOutputPath) {
		t.Fatalf("expected ErrNoOutputPath, got %v", err)
	}
}
