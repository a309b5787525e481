// Package cli implements the yearcal command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"yearcal/internal/config"
	"yearcal/internal/feeds"
	"yearcal/internal/ics"
	appLog "yearcal/internal/log"
	"yearcal/internal/pipeline"
)

const (
	appName           = "yearcal"
	defaultConfigPath = "./yearcal.yaml"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// CLI holds shared state for all commands.
type CLI struct {
	configPath string
	envFile    string
	verbose    bool

	cfg *config.Config
}

// New creates a CLI with default flag values.
func New() *CLI {
	return &CLI{configPath: defaultConfigPath}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "yearcal lays out iCalendar feeds on a year-long month-by-day grid",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("%s %s\ncommit: %s\nbuilt: %s\n", appName, version, commit, date))
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", c.configPath, "path to config file (.yaml or .toml)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file with YEARCAL_* overrides")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.barsCommand())
	root.AddCommand(c.feedsCommand())
	root.AddCommand(c.snapshotCommand())

	return root
}

// Execute builds the command tree and runs it with ctx.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	root := New().RootCommand()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}

// setup loads configuration and initializes logging.
func (c *CLI) setup() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", c.configPath, err)
	}
	if err := config.ApplyEnv(cfg, c.envFile); err != nil {
		return err
	}

	level := cfg.LogLevel
	if c.verbose {
		level = "debug"
	}
	if err := appLog.Init(cfg.Environment, level); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	c.cfg = cfg
	appLog.Debug("effective config",
		"config_path", c.configPath,
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"refresh", cfg.RefreshCron,
		"store", cfg.Store.Kind,
		"feed_count", len(cfg.Feeds),
	)
	return nil
}

func (c *CLI) location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.cfg.Timezone, err)
	}
	return loc, nil
}

func (c *CLI) fetcher() *ics.Fetcher {
	return ics.NewFetcher(c.cfg.CacheDir,
		ics.WithMaxBytes(c.cfg.MaxFeedBytes),
		ics.WithTimeout(time.Duration(c.cfg.FetchTimeoutSeconds)*time.Second),
		ics.WithConcurrency(c.cfg.FetchConcurrency),
	)
}

// openStore returns the configured subscription store and its close func.
func (c *CLI) openStore(ctx context.Context) (feeds.Store, func() error, error) {
	return feeds.Open(ctx, c.cfg, c.configPath)
}

// collector wires store, fetcher and display zone together.
func (c *CLI) collector(store feeds.Store) (*pipeline.Collector, *time.Location, error) {
	loc, err := c.location()
	if err != nil {
		return nil, nil, err
	}
	return pipeline.NewCollector(store, c.fetcher(), loc), loc, nil
}
