package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/adapter/cli/absence"
	"github.com/felixgeelhaar/slotwise/adapter/cli/availability"
	"github.com/felixgeelhaar/slotwise/adapter/cli/booking"
	"github.com/felixgeelhaar/slotwise/adapter/cli/roster"
	"github.com/felixgeelhaar/slotwise/internal/app"
	"github.com/felixgeelhaar/slotwise/pkg/config"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Cancel on shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: invalid configuration:", err)
		return 1
	}
	if cfg.Version == "dev" {
		cfg.Version = cli.Version
	}

	logger := observability.LoggerFromSettings(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat, cfg.Version)
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		return 1
	}
	defer container.Close()

	cli.SetApp(cli.NewApp(container))

	// Register commands
	cli.AddCommand(availability.Cmd)
	cli.AddCommand(booking.Cmd)
	cli.AddCommand(absence.Cmd)
	cli.AddCommand(roster.ProfessionalCmd)
	cli.AddCommand(roster.ClientCmd)
	cli.AddCommand(roster.ServiceCmd)

	return cli.Execute(ctx)
}
