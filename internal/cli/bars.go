package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"yearcal/internal/calendar"
	"yearcal/internal/grid"
	"yearcal/internal/model"
)

const (
	formatGrid = "grid"
	formatJSON = "json"
)

type barsOutput struct {
	Year int              `json:"year"`
	Bars []model.MonthBar `json:"bars"`
}

func (c *CLI) barsCommand() *cobra.Command {
	var (
		year   int
		format string
		color  string
	)

	cmd := &cobra.Command{
		Use:   "bars",
		Short: "Fetch all subscribed feeds and print the month bars of a year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != formatGrid && format != formatJSON {
				return fmt.Errorf("unknown format %q (want %s or %s)", format, formatGrid, formatJSON)
			}
			useColor, err := colorMode(color, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, closeStore, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			collector, loc, err := c.collector(store)
			if err != nil {
				return err
			}
			events, err := collector.Collect(ctx)
			if err != nil {
				return err
			}

			now := time.Now().In(loc)
			if year == 0 {
				year = now.Year()
			}
			bars := calendar.BuildMonthBars(events, year)

			if format == formatJSON {
				return writeBarsJSON(cmd.OutOrStdout(), year, bars)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), grid.Render(year, bars, grid.Options{Color: useColor, Today: now}))
			return err
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", 0, "year to lay out (default: current year)")
	cmd.Flags().StringVarP(&format, "format", "f", formatGrid, "output format: grid or json")
	cmd.Flags().StringVar(&color, "color", "auto", "color the grid: auto, always or never")
	return cmd
}

func writeBarsJSON(w io.Writer, year int, bars []model.MonthBar) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(barsOutput{Year: year, Bars: bars})
}

func colorMode(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "auto":
		return isTerminal(w), nil
	case "always":
		return true, nil
	case "never":
		return false, nil
	}
	return false, fmt.Errorf("unknown color mode %q", mode)
}
