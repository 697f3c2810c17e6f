package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"tracker-suite/internal/config"
	"tracker-suite/internal/logging"
)

func main() {
	cfg, err := config.Load()
	logger := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		logger.Fatal("config", "err", err)
	}

	runner := NewRunner(RunnerOpts{Config: cfg, Logger: logger})
	app := &cli.Command{
		Name:     "trackerctl",
		Usage:    "Maintenance tasks for the tracker suite",
		Commands: runner.register(),
	}
	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("trackerctl: %v", err)
	}
}
