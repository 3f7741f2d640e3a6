// Package services holds the report workflow that sits between the CLIs and
// the data layers.
//
// ReportService resolves an enterprise code against the registry, obtains its
// datasets through the cache hierarchy (memory, then JSON files younger than
// the configured TTL, then the spreadsheet source) and runs the date-range
// processor over them:
//
//	svc := services.NewReportService(registry, fetcher, files, memory, services.ReportServiceOptions{
//	    CacheTTL:    cfg.Cache.TTL,
//	    Concurrency: cfg.Sheets.Concurrency,
//	    Logger:      logger,
//	})
//	r, err := svc.ResolveRange("csu", "01-01-25", "")
//	report, err := svc.BuildReport(ctx, "csu", r, false)
//
// Errors are *errors.AppError values; unknown enterprises and organizations
// are NOT_FOUND, bad ranges are VALIDATION.
package services
