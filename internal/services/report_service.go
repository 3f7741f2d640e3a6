package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"otter/internal/cache"
	"otter/internal/config"
	"otter/internal/dataprocessing"
	apperrors "otter/internal/errors"
	"otter/internal/infrastructure"
	"otter/pkg/contracts/domain"
)

// DatasetFetcher pulls the raw rows of an enterprise from its spreadsheet
type DatasetFetcher interface {
	FetchDatasets(ctx context.Context, e domain.Enterprise) (domain.Datasets, error)
}

// ReportServiceOptions tunes a ReportService
type ReportServiceOptions struct {
	// CacheTTL is how long file cache entries are used before refetching. Zero never expires.
	CacheTTL time.Duration
	// Concurrency bounds RefreshAll. Values below 1 mean 1.
	Concurrency int
	Metrics     *infrastructure.Metrics
	Logger      *slog.Logger
}

// ReportService builds enterprise reports from cached or freshly fetched rows
type ReportService struct {
	registry    *config.EnterpriseRegistry
	fetcher     DatasetFetcher
	files       *cache.FileCache
	memory      *cache.MemoryCache
	cacheTTL    time.Duration
	concurrency int
	metrics     *infrastructure.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewReportService creates a report service. memory may be nil.
func NewReportService(registry *config.EnterpriseRegistry, fetcher DatasetFetcher, files *cache.FileCache, memory *cache.MemoryCache, opts ReportServiceOptions) *ReportService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &ReportService{
		registry:    registry,
		fetcher:     fetcher,
		files:       files,
		memory:      memory,
		cacheTTL:    opts.CacheTTL,
		concurrency: concurrency,
		metrics:     opts.Metrics,
		logger:      logger.With(slog.String("service", "report")),
		now:         time.Now,
	}
}

// Enterprise looks up a configured enterprise by code
func (s *ReportService) Enterprise(code string) (domain.Enterprise, error) {
	e, ok := s.registry.Get(code)
	if !ok {
		return domain.Enterprise{}, apperrors.NewNotFoundError(fmt.Sprintf("enterprise %q", code))
	}
	return e, nil
}

// Refresh fetches an enterprise from its source and rewrites both caches
func (s *ReportService) Refresh(ctx context.Context, code string) (cache.Snapshot, error) {
	e, err := s.Enterprise(code)
	if err != nil {
		return cache.Snapshot{}, err
	}

	start := s.now()
	datasets, err := s.fetcher.FetchDatasets(ctx, e)
	if err != nil {
		return cache.Snapshot{}, fmt.Errorf("refresh %s: %w", e.Code, err)
	}

	snapshot := cache.Snapshot{
		Enterprise: e.Code,
		Datasets:   datasets,
		FetchedAt:  s.now(),
	}
	if err := s.files.SaveDatasets(e.Code, datasets, snapshot.FetchedAt); err != nil {
		return cache.Snapshot{}, fmt.Errorf("refresh %s: %w", e.Code, err)
	}
	s.remember(snapshot)

	s.logger.InfoContext(ctx, "enterprise refreshed",
		slog.String("enterprise", e.Code),
		slog.Int("registrants", len(datasets.Registrants)),
		slog.Int("submissions", len(datasets.Submissions)),
		slog.Duration("elapsed", s.now().Sub(start)))
	return snapshot, nil
}

// RefreshAll refreshes every configured enterprise with bounded concurrency.
// A failing enterprise does not stop the others; all failures are joined.
func (s *ReportService) RefreshAll(ctx context.Context) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(s.concurrency)

	for _, code := range s.registry.Codes() {
		g.Go(func() error {
			if _, err := s.Refresh(ctx, code); err != nil {
				s.logger.ErrorContext(ctx, "enterprise refresh failed",
					slog.String("enterprise", code),
					slog.String("error", err.Error()))
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	return stderrors.Join(errs...)
}

// Datasets returns the rows of an enterprise from memory, then the file cache
// when fresh, then the source. fromCache reports whether a cache served them.
func (s *ReportService) Datasets(ctx context.Context, code string, forceRefresh bool) (snapshot cache.Snapshot, fromCache bool, err error) {
	e, err := s.Enterprise(code)
	if err != nil {
		return cache.Snapshot{}, false, err
	}

	if !forceRefresh {
		if s.memory != nil {
			snap, ok := s.memory.Get(e.Code)
			s.metrics.RecordCacheLookup(ctx, "memory", ok)
			if ok {
				return snap, true, nil
			}
		}

		snap, err := s.files.LoadDatasets(e.Code)
		switch {
		case err == nil && (cache.Entry{FetchedAt: snap.FetchedAt}).IsFresh(s.cacheTTL, s.now()):
			s.metrics.RecordCacheLookup(ctx, "file", true)
			s.remember(snap)
			return snap, true, nil
		case err == nil:
			s.metrics.RecordCacheLookup(ctx, "file", false)
			s.logger.DebugContext(ctx, "file cache stale",
				slog.String("enterprise", e.Code),
				slog.Time("fetched_at", snap.FetchedAt))
		case stderrors.Is(err, cache.ErrCacheMiss):
			s.metrics.RecordCacheLookup(ctx, "file", false)
		default:
			s.metrics.RecordCacheLookup(ctx, "file", false)
			s.logger.WarnContext(ctx, "file cache unreadable, refetching",
				slog.String("enterprise", e.Code),
				slog.String("error", err.Error()))
		}
	}

	snap, err := s.Refresh(ctx, e.Code)
	if err != nil {
		return cache.Snapshot{}, false, err
	}
	return snap, false, nil
}

// remember keeps snap in memory, but never past the point where the file
// cache would consider it stale
func (s *ReportService) remember(snap cache.Snapshot) {
	if s.memory == nil {
		return
	}
	var deadline time.Time
	if s.cacheTTL > 0 {
		deadline = snap.FetchedAt.Add(s.cacheTTL)
	}
	s.memory.SetUntil(snap, deadline)
}

// ResolveRange builds a date range for an enterprise. An empty start defaults
// to the enterprise start date and an empty end to today.
func (s *ReportService) ResolveRange(code, start, end string) (dataprocessing.DateRange, error) {
	e, err := s.Enterprise(code)
	if err != nil {
		return dataprocessing.DateRange{}, err
	}
	if strings.TrimSpace(start) == "" {
		start = e.StartDate
	}
	if strings.TrimSpace(end) == "" {
		end = dataprocessing.FormatDate(s.now())
	}

	r, err := dataprocessing.NewDateRange(start, end)
	if err != nil {
		return dataprocessing.DateRange{}, apperrors.NewValidationError("invalid date range", err).
			WithContext("start", start).
			WithContext("end", end)
	}
	return r, nil
}

// BuildReport filters an enterprise's rows by r and aggregates them per organization
func (s *ReportService) BuildReport(ctx context.Context, code string, r dataprocessing.DateRange, forceRefresh bool) (*domain.Report, error) {
	e, err := s.Enterprise(code)
	if err != nil {
		return nil, err
	}

	snap, fromCache, err := s.Datasets(ctx, e.Code, forceRefresh)
	if err != nil {
		return nil, err
	}

	processor := dataprocessing.NewProcessor(e.ColumnLayout(), s.logger)
	summary := processor.ProcessRegistrantsData(snap.Datasets.Registrants, snap.Datasets.Submissions, r)

	report := &domain.Report{
		EnterpriseCode: e.Code,
		EnterpriseName: e.Name,
		Start:          r.StartString(),
		End:            r.EndString(),
		GeneratedAt:    s.now(),
		Totals:         summary.Totals(),
		Organizations:  processor.ProcessOrganizationData(summary, e.Organizations),
		Certificates:   processor.Certificates(summary),
		Metadata: domain.ReportMetadata{
			RegistrantRows: len(snap.Datasets.Registrants),
			SubmissionRows: len(snap.Datasets.Submissions),
			SkippedRows:    summary.Skipped.Total(),
			DataFetchedAt:  snap.FetchedAt,
			FromCache:      fromCache,
		},
	}

	rows := report.Metadata.RegistrantRows + report.Metadata.SubmissionRows
	s.metrics.RecordRows(ctx, e.Code, rows, report.Metadata.SkippedRows)
	s.metrics.RecordReport(ctx, e.Code, "report")

	s.logger.InfoContext(ctx, "report built",
		slog.String("enterprise", e.Code),
		slog.String("range", r.String()),
		slog.Int("registrations", report.Totals.Registrations),
		slog.Int("enrollments", report.Totals.Enrollments),
		slog.Int("certificates", report.Totals.Certificates),
		slog.Int("skipped", report.Metadata.SkippedRows),
		slog.Bool("from_cache", fromCache))
	return report, nil
}

// BuildDashboard builds the single-organization view. The organization must be
// configured for the enterprise or appear in its rows, ignoring case.
func (s *ReportService) BuildDashboard(ctx context.Context, code, organization string, r dataprocessing.DateRange, forceRefresh bool) (*domain.Dashboard, error) {
	e, err := s.Enterprise(code)
	if err != nil {
		return nil, err
	}

	snap, _, err := s.Datasets(ctx, e.Code, forceRefresh)
	if err != nil {
		return nil, err
	}

	columns := e.ColumnLayout()
	name, ok := findOrganization(organization, e.Organizations, columns.Organization, snap.Datasets)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("organization %q in enterprise %s", organization, e.Code))
	}

	processor := dataprocessing.NewProcessor(columns, s.logger)
	summary := processor.ProcessRegistrantsData(snap.Datasets.Registrants, snap.Datasets.Submissions, r)
	dashboard := processor.OrganizationDashboard(summary, name)
	dashboard.EnterpriseCode = e.Code

	s.metrics.RecordReport(ctx, e.Code, "dashboard")
	s.logger.InfoContext(ctx, "dashboard built",
		slog.String("enterprise", e.Code),
		slog.String("organization", name),
		slog.String("range", r.String()))
	return &dashboard, nil
}

// findOrganization returns the canonical spelling of an organization name
func findOrganization(name string, configured []string, column int, datasets domain.Datasets) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, org := range configured {
		if strings.EqualFold(strings.TrimSpace(org), name) {
			return strings.TrimSpace(org), true
		}
	}
	for _, rows := range [][]domain.Record{datasets.Registrants, datasets.Submissions} {
		for _, row := range rows {
			if org := row.Field(column); strings.EqualFold(org, name) {
				return org, true
			}
		}
	}
	return "", false
}
