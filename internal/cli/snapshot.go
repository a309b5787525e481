package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"yearcal/internal/capture"
	"yearcal/internal/feeds"
	appLog "yearcal/internal/log"
	"yearcal/internal/model"
	"yearcal/internal/web"
)

// eventList is a fixed EventSource.
type eventList []model.Event

func (e eventList) Events(context.Context) ([]model.Event, error) {
	return e, nil
}

func (c *CLI) snapshotCommand() *cobra.Command {
	var (
		year    int
		out     string
		baseURL string
		width   int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render the year page in headless Chromium and save it as PNG",
		Long: `Render the year page in headless Chromium and save it as PNG.

Without --url the feeds are collected once and the page is served from a
temporary loopback listener. With --url a running "yearcal serve" is
captured instead, using the configured basic auth credentials.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			loc, err := c.location()
			if err != nil {
				return err
			}
			if year == 0 {
				year = time.Now().In(loc).Year()
			}
			if out == "" {
				out = fmt.Sprintf("%s-%d.png", appName, year)
			}

			opts := capture.CaptureOptions{
				BaseURL:    baseURL,
				Year:       year,
				OutputPath: out,
				Width:      width,
				Timeout:    timeout,
			}
			if baseURL != "" && c.cfg.BasicAuth != nil {
				opts.Username = c.cfg.BasicAuth.Username
				opts.Password = c.cfg.BasicAuth.Password
			}

			if baseURL == "" {
				stop, addr, err := c.serveSnapshotPage(ctx)
				if err != nil {
					return err
				}
				defer stop()
				opts.BaseURL = "http://" + addr
			}

			if err := capture.CaptureYearPNG(ctx, opts); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "snapshot of %d written", year)
			printFile(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", 0, "year to capture (default: current year)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output PNG path (default: yearcal-<year>.png)")
	cmd.Flags().StringVar(&baseURL, "url", "", "capture a running server at this base URL")
	cmd.Flags().IntVar(&width, "width", capture.DefaultWidth, "viewport width in pixels")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Duration(capture.DefaultTimeoutSec)*time.Second, "capture timeout")
	return cmd
}

// serveSnapshotPage collects every feed once and serves the year page on a
// loopback port. stop shuts the listener down.
func (c *CLI) serveSnapshotPage(ctx context.Context) (stop func(), addr string, err error) {
	store, closeStore, err := c.openStore(ctx)
	if err != nil {
		return nil, "", err
	}
	defer closeStore()

	collector, loc, err := c.collector(store)
	if err != nil {
		return nil, "", err
	}
	events, err := collector.Collect(ctx)
	if err != nil {
		return nil, "", err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, "", fmt.Errorf("snapshot listener: %w", err)
	}

	pageCfg := *c.cfg
	pageCfg.Listen = ln.Addr().String()
	pageCfg.BasicAuth = nil
	page := web.NewServer(&pageCfg, web.Deps{
		Events:        eventList(events),
		Subscriptions: feeds.NewSubscriptions(feeds.NewMemoryStore()),
		Fetcher:       c.fetcher(),
		Location:      loc,
	})

	srv := &http.Server{Handler: page.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("snapshot page server failed", err)
		}
	}()

	stop = func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	return stop, ln.Addr().String(), nil
}
