package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the application instruments. A nil *Metrics records nothing.
type Metrics struct {
	sheetFetches      metric.Int64Counter
	sheetFetchSeconds metric.Float64Histogram
	cacheLookups      metric.Int64Counter
	rowsProcessed     metric.Int64Counter
	rowsSkipped       metric.Int64Counter
	reportsBuilt      metric.Int64Counter
}

// NewMetrics creates the application instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)

	m.sheetFetches, err = meter.Int64Counter(
		"otter_sheet_fetches",
		metric.WithDescription("Spreadsheet range fetches by outcome"),
	)
	if err != nil {
		return nil, err
	}

	m.sheetFetchSeconds, err = meter.Float64Histogram(
		"otter_sheet_fetch_duration",
		metric.WithDescription("Spreadsheet range fetch duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.cacheLookups, err = meter.Int64Counter(
		"otter_cache_lookups",
		metric.WithDescription("Cache lookups by layer and result"),
	)
	if err != nil {
		return nil, err
	}

	m.rowsProcessed, err = meter.Int64Counter(
		"otter_rows_processed",
		metric.WithDescription("Rows read by the date-range processor"),
	)
	if err != nil {
		return nil, err
	}

	m.rowsSkipped, err = meter.Int64Counter(
		"otter_rows_skipped",
		metric.WithDescription("Rows excluded for missing or malformed dates"),
	)
	if err != nil {
		return nil, err
	}

	m.reportsBuilt, err = meter.Int64Counter(
		"otter_reports_built",
		metric.WithDescription("Reports and dashboards built"),
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// RecordFetch records one spreadsheet range fetch
func (m *Metrics) RecordFetch(ctx context.Context, enterprise, dataset string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("enterprise", enterprise),
		attribute.String("dataset", dataset),
		attribute.String("outcome", outcome),
	)
	m.sheetFetches.Add(ctx, 1, attrs)
	m.sheetFetchSeconds.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordCacheLookup records a hit or miss on a cache layer
func (m *Metrics) RecordCacheLookup(ctx context.Context, layer string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("layer", layer),
		attribute.String("result", result),
	))
}

// RecordRows records processed and skipped row counts for an enterprise
func (m *Metrics) RecordRows(ctx context.Context, enterprise string, processed, skipped int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("enterprise", enterprise))
	m.rowsProcessed.Add(ctx, int64(processed), attrs)
	m.rowsSkipped.Add(ctx, int64(skipped), attrs)
}

// RecordReport records a built report of the given kind ("report", "dashboard")
func (m *Metrics) RecordReport(ctx context.Context, enterprise, kind string) {
	if m == nil {
		return
	}
	m.reportsBuilt.Add(ctx, 1, metric.WithAttributes(
		attribute.String("enterprise", enterprise),
		attribute.String("kind", kind),
	))
}
