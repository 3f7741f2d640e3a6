package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"otter/internal/cache"
	"otter/internal/config"
	"otter/internal/exporter"
	"otter/internal/infrastructure"
	"otter/internal/services"
	"otter/internal/sheets"
	"otter/pkg/contracts"
)

// Options selects the files a command starts from
type Options struct {
	// Command names the binary in logs and telemetry
	Command string
	// ConfigFile overrides the otter.yaml search
	ConfigFile string
	// EnterprisesFile overrides paths.enterprises_file
	EnterprisesFile string
}

// Application holds the wired components shared by the commands
type Application struct {
	Config      *config.Config
	Paths       *config.Paths
	Logger      *slog.Logger
	Telemetry   *infrastructure.Telemetry
	Enterprises *config.EnterpriseRegistry
	Reports     *services.ReportService
	Files       *exporter.FileWriter
	memory      *cache.MemoryCache
}

// NewApplication loads configuration and wires logging, telemetry, sources,
// caches and the report service.
func NewApplication(ctx context.Context, opts Options) (*Application, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.EnterprisesFile != "" {
		cfg.Paths.EnterprisesFile = opts.EnterprisesFile
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	cfg.Logging.FilePath = paths.LogFile

	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = logger.With(slog.String("command", opts.Command))

	logger.InfoContext(ctx, "Application starting",
		slog.String("version", contracts.Version),
		slog.String("commit", contracts.GitCommit))
	paths.LogPathResolution(logger)

	telemetry, err := infrastructure.InitializeTelemetry(ctx, cfg.Telemetry, contracts.Version, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	registry, err := config.LoadEnterprises(paths.EnterprisesFile)
	if err != nil {
		telemetry.Shutdown(ctx)
		return nil, fmt.Errorf("failed to load enterprises: %w", err)
	}
	logger.DebugContext(ctx, "Enterprises loaded",
		slog.Int("count", registry.Len()),
		slog.Any("codes", registry.Codes()))

	source, err := newSource(ctx, cfg.Sheets, telemetry, logger)
	if err != nil {
		telemetry.Shutdown(ctx)
		return nil, err
	}

	fetcher := sheets.NewFetcher(source, cfg.Sheets.HeaderRows, telemetry.Metrics, logger)
	files := cache.NewFileCache(paths.CacheDir, logger)
	memory := cache.NewMemoryCache(cfg.Cache.MemoryTTL, cfg.Cache.MaxEntries)

	reports := services.NewReportService(registry, fetcher, files, memory, services.ReportServiceOptions{
		CacheTTL:    cfg.Cache.TTL,
		Concurrency: cfg.Sheets.Concurrency,
		Metrics:     telemetry.Metrics,
		Logger:      logger,
	})

	return &Application{
		Config:      cfg,
		Paths:       paths,
		Logger:      logger,
		Telemetry:   telemetry,
		Enterprises: registry,
		Reports:     reports,
		Files:       exporter.NewFileWriter(paths, logger),
		memory:      memory,
	}, nil
}

// newSource routes workbook paths to excelize and everything else to the
// Sheets API. Missing Sheets credentials only fail enterprises that need them.
func newSource(ctx context.Context, cfg config.SheetsConfig, telemetry *infrastructure.Telemetry, logger *slog.Logger) (sheets.Source, error) {
	routing := sheets.RoutingSource{Workbooks: sheets.NewXLSXSource(logger)}

	api, err := sheets.NewSheetsSource(ctx, cfg, telemetry.Tracer, logger)
	switch {
	case err == nil:
		routing.Sheets = api
	case stderrors.Is(err, sheets.ErrNoCredentials):
		logger.WarnContext(ctx, "Google Sheets credentials not configured, only workbook sources are available")
	default:
		return nil, fmt.Errorf("failed to create sheets source: %w", err)
	}
	return routing, nil
}

// Close stops background work, writes the metrics file and flushes telemetry
func (a *Application) Close(ctx context.Context) error {
	a.memory.Stop()

	var errs []error
	if err := a.Telemetry.WriteMetrics(a.Config.Telemetry.MetricsFile); err != nil {
		errs = append(errs, err)
	}
	if err := a.Telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, err)
	}
	return stderrors.Join(errs...)
}
