package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"yearcal/internal/cli"
	appLog "yearcal/internal/log"
)

// Set by -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli.SetVersion(version, commit, date)
	err := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	appLog.Sync()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		cli.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
