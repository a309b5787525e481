package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"yearcal/internal/feeds"
)

func (c *CLI) feedsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "Manage subscribed ICS feeds",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List subscribed feeds, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withSubscriptions(cmd.Context(), func(subs *feeds.Subscriptions) error {
				urls, err := subs.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(urls) == 0 {
					printInfo(out, "No calendars connected yet. Add one with %s feeds add <https-url>.", appName)
					return nil
				}
				for _, u := range urls {
					fmt.Fprintln(out, u)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <https-url>",
		Short: "Subscribe to an https:// ICS feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSubscriptions(cmd.Context(), func(subs *feeds.Subscriptions) error {
				urls, err := subs.Add(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "%d feed(s) subscribed", len(urls))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "remove <url>",
		Aliases: []string{"rm"},
		Short:   "Unsubscribe from a feed",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSubscriptions(cmd.Context(), func(subs *feeds.Subscriptions) error {
				urls, err := subs.Remove(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "%d feed(s) subscribed", len(urls))
				return nil
			})
		},
	})

	return cmd
}

func (c *CLI) withSubscriptions(ctx context.Context, fn func(*feeds.Subscriptions) error) error {
	store, closeStore, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(feeds.NewSubscriptions(store))
}
