package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	appLog "yearcal/internal/log"
)

// Default capture parameters. The width fits the 72px month labels plus
// 31 day columns of 44px.
const (
	DefaultWidth      = 1460
	DefaultHeight     = 900
	DefaultTimeoutSec = 30
)

var (
	ErrNoBaseURL    = errors.New("capture: base URL is required")
	ErrNoOutputPath = errors.New("capture: output path is required")
)

// CaptureOptions defines parameters for a Chromium-based screenshot capture.
type CaptureOptions struct {
	// BaseURL is where the year page is served, e.g. "http://127.0.0.1:8080".
	BaseURL string

	// Year selects the page; zero leaves the server default (current year).
	Year int

	// OutputPath is where the PNG screenshot will be written.
	OutputPath string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used. The screenshot covers the full
	// page, so Height only affects layout.
	Width  int
	Height int

	// Timeout bounds the entire capture operation. If zero, a sane default
	// (DefaultTimeoutSec) is used.
	Timeout time.Duration

	// Username / Password are sent as HTTP Basic credentials when set.
	Username string
	Password string
}

// YearURL builds the page URL for opts.
func YearURL(opts CaptureOptions) (string, error) {
	if opts.BaseURL == "" {
		return "", ErrNoBaseURL
	}
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return "", fmt.Errorf("capture: invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("capture: unsupported scheme %q", u.Scheme)
	}
	u.Path = "/"
	u.RawQuery = ""
	if opts.Year != 0 {
		u.RawQuery = url.Values{"year": {strconv.Itoa(opts.Year)}}.Encode()
	}
	return u.String(), nil
}

// CaptureYearPNG launches a headless Chromium instance via chromedp,
// navigates to the year page, waits until the page root reports
// data-ready="true" and writes a full-page PNG to opts.OutputPath.
func CaptureYearPNG(parentCtx context.Context, opts CaptureOptions) error {
	target, err := YearURL(opts)
	if err != nil {
		return err
	}
	if opts.OutputPath == "" {
		return ErrNoOutputPath
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
	}
	if opts.Username != "" {
		cred := base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Password))
		tasks = append(tasks,
			network.Enable(),
			network.SetExtraHTTPHeaders(network.Headers{"Authorization": "Basic " + cred}),
		)
	}
	tasks = append(tasks,
		chromedp.Navigate(target),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(300*time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	)

	start := time.Now()
	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}

	appLog.Info("year snapshot captured",
		"year", opts.Year,
		"path", opts.OutputPath,
		"bytes", len(png),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
