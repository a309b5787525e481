package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"yearcal/internal/feeds"
	appLog "yearcal/internal/log"
	"yearcal/internal/pipeline"
	"yearcal/internal/web"
)

func (c *CLI) serveCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the year page and JSON API, refreshing feeds on a schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen != "" {
				c.cfg.Listen = listen
			}
			return c.runServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context) error {
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		appLog.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		return fmt.Errorf("set GOMAXPROCS: %w", err)
	}

	store, closeStore, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			appLog.Error("closing feed store failed", err)
		}
	}()

	collector, loc, err := c.collector(store)
	if err != nil {
		return err
	}

	refresher := pipeline.NewRefresher(collector)
	if err := refresher.Start(c.cfg.RefreshCron); err != nil {
		return err
	}
	defer refresher.Stop()

	// Warm the snapshot so the first page view does not wait on every feed.
	go func() {
		if err := refresher.Refresh(ctx); err != nil {
			appLog.Error("initial feed refresh failed", err)
		}
	}()

	srv := web.NewServer(c.cfg, web.Deps{
		Events:         refresher,
		Subscriptions:  feeds.NewSubscriptions(store),
		Fetcher:        c.fetcher(),
		Location:       loc,
		OnFeedsChanged: refresher.Invalidate,
	})

	appLog.Info("yearcal serving", "version", version, "listen", c.cfg.Listen, "timezone", loc.String())
	return srv.ListenAndServe(ctx)
}
