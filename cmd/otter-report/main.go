package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"otter/internal/app"
	"otter/internal/exporter"
	"otter/internal/infrastructure"
	"otter/pkg/contracts"
	"otter/pkg/contracts/domain"
)

const commandName = "otter-report"

type reportFlags struct {
	enterprise   string
	start        string
	end          string
	organization string
	format       domain.ReportFormat
	out          string
	refresh      bool
}

func main() {
	configFile := flag.String("config", "", "path to otter.yaml (defaults to ./otter.yaml or ./configs/otter.yaml)")
	enterprisesFile := flag.String("enterprises", "", "path to the enterprise registry (defaults to paths.enterprises_file)")
	enterprise := flag.String("enterprise", "", "enterprise code (required)")
	start := flag.String("start", "", "range start MM-DD-YY (defaults to the enterprise start date)")
	end := flag.String("end", "", "range end MM-DD-YY (defaults to today)")
	org := flag.String("org", "", "render the dashboard of a single organization")
	format := flag.String("format", string(domain.ReportFormatText), "output format: text, csv, xlsx or json")
	out := flag.String("out", "", "output file; bare names go to the reports directory (default stdout, xlsx defaults to a generated name)")
	refresh := flag.Bool("refresh", false, "fetch from Google Sheets instead of using the cache")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString(commandName))
		return
	}

	opts := reportFlags{
		enterprise:   strings.TrimSpace(*enterprise),
		start:        *start,
		end:          *end,
		organization: strings.TrimSpace(*org),
		format:       domain.ReportFormat(strings.ToLower(*format)),
		out:          *out,
		refresh:      *refresh,
	}
	if err := opts.validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
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

	runErr := run(ctx, application, opts)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := application.Close(shutdownCtx); err != nil {
		slog.Warn("Shutdown incomplete", "error", err)
	}

	if runErr != nil {
		slog.Error("Report failed", "error", runErr)
		os.Exit(1)
	}
}

func (f reportFlags) validate() error {
	if f.enterprise == "" {
		return errors.New("-enterprise is required")
	}
	if !f.format.Valid() {
		return fmt.Errorf("unsupported -format %q", f.format)
	}
	return nil
}

func run(ctx context.Context, application *app.Application, opts reportFlags) error {
	r, err := application.Reports.ResolveRange(opts.enterprise, opts.start, opts.end)
	if err != nil {
		return err
	}

	var render func(io.Writer) error
	if opts.organization != "" {
		dashboard, err := application.Reports.BuildDashboard(ctx, opts.enterprise, opts.organization, r, opts.refresh)
		if err != nil {
			return err
		}
		render = func(w io.Writer) error { return exporter.WriteDashboard(w, opts.format, dashboard) }
	} else {
		report, err := application.Reports.BuildReport(ctx, opts.enterprise, r, opts.refresh)
		if err != nil {
			return err
		}
		render = func(w io.Writer) error { return exporter.WriteReport(w, opts.format, report) }
	}

	if opts.out == "" && opts.format == domain.ReportFormatXLSX {
		opts.out = exporter.DefaultFilename(opts.enterprise, opts.organization, r.StartString(), r.EndString(), opts.format)
	}
	return writeOutput(application.Files, opts.out, render)
}

// writeOutput renders to stdout for "" or "-", otherwise to the named file.
// The file is only created once there is something to render.
func writeOutput(files *exporter.FileWriter, out string, render func(io.Writer) error) (err error) {
	if out == "" || out == "-" {
		return render(os.Stdout)
	}

	file, err := files.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", out, cerr)
		}
	}()
	return render(file)
}
