package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"otter/internal/infrastructure"
	"otter/pkg/contracts/domain"
)

// Fetcher pulls both datasets of an enterprise from a Source
type Fetcher struct {
	source     Source
	headerRows int
	metrics    *infrastructure.Metrics
	logger     *slog.Logger
}

// NewFetcher creates a fetcher. headerRows leading rows of each range are dropped.
func NewFetcher(source Source, headerRows int, metrics *infrastructure.Metrics, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if headerRows < 0 {
		headerRows = 0
	}
	return &Fetcher{
		source:     source,
		headerRows: headerRows,
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "fetcher")),
	}
}

// FetchDatasets fetches the registrants and submissions ranges concurrently
func (f *Fetcher) FetchDatasets(ctx context.Context, e domain.Enterprise) (domain.Datasets, error) {
	var datasets domain.Datasets
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := f.fetch(gctx, e, domain.DatasetRegistrants, e.RegistrantsRange)
		datasets.Registrants = rows
		return err
	})
	g.Go(func() error {
		rows, err := f.fetch(gctx, e, domain.DatasetSubmissions, e.SubmissionsRange)
		datasets.Submissions = rows
		return err
	})

	if err := g.Wait(); err != nil {
		return domain.Datasets{}, err
	}
	return datasets, nil
}

func (f *Fetcher) fetch(ctx context.Context, e domain.Enterprise, dataset, a1Range string) ([]domain.Record, error) {
	start := time.Now()
	values, err := f.source.FetchRange(ctx, e.SpreadsheetID, a1Range)
	f.metrics.RecordFetch(ctx, e.Code, dataset, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", e.Code, dataset, err)
	}

	if len(values) <= f.headerRows {
		values = nil
	} else {
		values = values[f.headerRows:]
	}

	records := make([]domain.Record, len(values))
	for i, row := range values {
		records[i] = domain.Record(row)
	}

	f.logger.DebugContext(ctx, "range fetched",
		slog.String("enterprise", e.Code),
		slog.String("dataset", dataset),
		slog.Int("rows", len(records)),
		slog.Duration("elapsed", time.Since(start)))
	return records, nil
}
