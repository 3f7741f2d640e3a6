package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"otter/internal/app"
	"otter/internal/infrastructure"
	"otter/pkg/contracts"
)

const commandName = "otter-refresh"

func main() {
	configFile := flag.String("config", "", "path to otter.yaml (defaults to ./otter.yaml or ./configs/otter.yaml)")
	enterprisesFile := flag.String("enterprises", "", "path to the enterprise registry (defaults to paths.enterprises_file)")
	enterprise := flag.String("enterprise", "", "refresh a single enterprise code instead of all")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString(commandName))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.StartRun(ctx)

	application, err := app.NewApplication(ctx, app.Options{
		Command:         commandName,
		ConfigFile:      *configFile,
		EnterprisesFile: *enterprisesFile,
	})
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}

	runErr := run(ctx, application, *enterprise)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := application.Close(shutdownCtx); err != nil {
		slog.Warn("Shutdown incomplete", "error", err)
	}

	if runErr != nil {
		slog.Error("Refresh failed", "error", runErr)
		os.Exit(1)
	}
}

func run(ctx context.Context, application *app.Application, enterprise string) error {
	logger := application.Logger
	start := time.Now()

	if enterprise != "" {
		snapshot, err := application.Reports.Refresh(ctx, enterprise)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "Refresh complete",
			slog.String("enterprise", snapshot.Enterprise),
			slog.Int("registrants", len(snapshot.Datasets.Registrants)),
			slog.Int("submissions", len(snapshot.Datasets.Submissions)),
			slog.Duration("elapsed", time.Since(start)))
		return nil
	}

	if err := application.Reports.RefreshAll(ctx); err != nil {
		return err
	}
	logger.InfoContext(ctx, "Refresh complete",
		slog.Int("enterprises", application.Enterprises.Len()),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}
