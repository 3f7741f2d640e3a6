package services

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otter/internal/cache"
	"otter/internal/config"
	"otter/internal/dataprocessing"
	apperrors "otter/internal/errors"
	"otter/internal/shared/testutil"
	"otter/pkg/contracts/domain"
)

const testEnterprises = `
enterprises:
  - code: csu
    name: California State University
    spreadsheet_id: sheet-csu
    registrants_range: Registrants!A:P
    submissions_range: Submissions!A:P
    start_date: 01-01-25
    organizations: [Org A, Org B, Org D]
  - code: ccc
    name: Community Colleges
    spreadsheet_id: sheet-ccc
    registrants_range: Registrants!A:P
    submissions_range: Submissions!A:P
    start_date: 01-01-25
`

func fixtureDatasets() domain.Datasets {
	return domain.Datasets{
		Registrants: []domain.Record{
			testutil.Registrant("01-10-25", "Yes", "Org A", "Yes", "02-01-25"),
			testutil.Registrant("01-20-25", "yes", "Org B", "-", ""),
			testutil.Registrant("03-05-25", "Yes", "Org A", "Yes", "07-15-25"),
			testutil.Registrant("bad-date", "Yes", "Org B", "No", ""),
			testutil.Registrant("02-02-25", "No", "", "Yes", "03-03-25"),
		},
		Submissions: []domain.Record{
			testutil.Submission("Org A", "01-05-25"),
			testutil.Submission("Org B", "12-31-24"),
			testutil.Submission("Org C", "06-30-25"),
			testutil.Submission("Org A", ""),
		},
	}
}

type fakeFetcher struct {
	mu       sync.Mutex
	datasets map[string]domain.Datasets
	fail     map[string]error
	calls    map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		datasets: map[string]domain.Datasets{
			"csu": fixtureDatasets(),
			"ccc": {},
		},
		fail:  map[string]error{},
		calls: map[string]int{},
	}
}

func (f *fakeFetcher) FetchDatasets(_ context.Context, e domain.Enterprise) (domain.Datasets, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[e.Code]++
	if err := f.fail[e.Code]; err != nil {
		return domain.Datasets{}, err
	}
	return f.datasets[e.Code], nil
}

func (f *fakeFetcher) callCount(code string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[code]
}

type serviceFixture struct {
	service *ReportService
	fetcher *fakeFetcher
	files   *cache.FileCache
	logs    *testutil.CaptureHandler
	now     time.Time
}

func newServiceFixture(t *testing.T, withMemory bool) *serviceFixture {
	t.Helper()
	registry, err := config.ParseEnterprises([]byte(testEnterprises))
	require.NoError(t, err)

	logger, logs := testutil.NewTestLogger(t)
	fx := &serviceFixture{
		fetcher: newFakeFetcher(),
		files:   cache.NewFileCache(t.TempDir(), logger),
		logs:    logs,
		now:     time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC),
	}

	var memory *cache.MemoryCache
	if withMemory {
		memory = cache.NewMemoryCache(time.Hour, 8, cache.WithClock(func() time.Time { return fx.now }))
		t.Cleanup(memory.Stop)
	}
	fx.service = NewReportService(registry, fx.fetcher, fx.files, memory, ReportServiceOptions{
		CacheTTL:    time.Hour,
		Concurrency: 2,
		Logger:      logger,
	})
	fx.service.now = func() time.Time { return fx.now }
	return fx
}

func mustRange(t *testing.T, start, end string) dataprocessing.DateRange {
	t.Helper()
	r, err := dataprocessing.NewDateRange(start, end)
	require.NoError(t, err)
	return r
}

func TestReportService_BuildReport(t *testing.T) {
	fx := newServiceFixture(t, true)

	report, err := fx.service.BuildReport(context.Background(), "CSU", mustRange(t, "01-01-25", "06-30-25"), false)
	require.NoError(t, err)

	assert.Equal(t, "csu", report.EnterpriseCode)
	assert.Equal(t, "California State University", report.EnterpriseName)
	assert.Equal(t, "01-01-25", report.Start)
	assert.Equal(t, "06-30-25", report.End)
	assert.Equal(t, domain.OrganizationTotals{Registrations: 2, Enrollments: 3, Certificates: 2}, report.Totals)

	assert.Equal(t, []domain.OrganizationTotals{
		{Organization: "Org A", Registrations: 1, Enrollments: 2, Certificates: 1},
		{Organization: "Org B", Registrations: 0, Enrollments: 1, Certificates: 0},
		{Organization: "Org C", Registrations: 1, Enrollments: 0, Certificates: 0},
		{Organization: "Org D"},
	}, report.Organizations)

	require.Len(t, report.Certificates, 2)
	assert.Equal(t, "02-01-25", report.Certificates[0].IssueDate)
	assert.Equal(t, "Org A", report.Certificates[0].Organization)
	assert.Equal(t, "03-03-25", report.Certificates[1].IssueDate)
	assert.Equal(t, "", report.Certificates[1].Organization)

	assert.Equal(t, 5, report.Metadata.RegistrantRows)
	assert.Equal(t, 4, report.Metadata.SubmissionRows)
	assert.Equal(t, 2, report.Metadata.SkippedRows)
	assert.False(t, report.Metadata.FromCache)
	assert.True(t, report.Metadata.DataFetchedAt.Equal(fx.now))
}

func TestReportService_BuildReport_UnknownEnterprise(t *testing.T) {
	fx := newServiceFixture(t, false)

	_, err := fx.service.BuildReport(context.Background(), "nope", mustRange(t, "01-01-25", "06-30-25"), false)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, 0, fx.fetcher.callCount("nope"))
}

func TestReportService_BuildDashboard(t *testing.T) {
	fx := newServiceFixture(t, true)
	r := mustRange(t, "01-01-25", "06-30-25")

	tests := []struct {
		name         string
		organization string
		wantName     string
		wantTotals   domain.OrganizationTotals
		wantEnrolled int
	}{
		{
			name:         "configured organization, case-insensitive",
			organization: " org a ",
			wantName:     "Org A",
			wantTotals:   domain.OrganizationTotals{Organization: "Org A", Registrations: 1, Enrollments: 2, Certificates: 1},
			wantEnrolled: 2,
		},
		{
			name:         "organization only seen in rows",
			organization: "ORG C",
			wantName:     "Org C",
			wantTotals:   domain.OrganizationTotals{Organization: "Org C", Registrations: 1},
		},
		{
			name:         "configured organization without activity",
			organization: "Org D",
			wantName:     "Org D",
			wantTotals:   domain.OrganizationTotals{Organization: "Org D"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := fx.service.BuildDashboard(context.Background(), "csu", tt.organization, r, false)
			require.NoError(t, err)
			assert.Equal(t, "csu", d.EnterpriseCode)
			assert.Equal(t, tt.wantName, d.Totals.Organization)
			assert.Equal(t, tt.wantTotals, d.Totals)
			assert.Len(t, d.Enrollments, tt.wantEnrolled)
			assert.Len(t, d.Certificates, tt.wantTotals.Certificates)
		})
	}

	_, err := fx.service.BuildDashboard(context.Background(), "csu", "Org Z", r, false)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = fx.service.BuildDashboard(context.Background(), "csu", "  ", r, false)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestReportService_BuildDashboard_RowCaseDiffers(t *testing.T) {
	fx := newServiceFixture(t, false)
	fx.fetcher.datasets["csu"] = domain.Datasets{
		Registrants: []domain.Record{
			testutil.Registrant("01-10-25", "Yes", "org a", "Yes", "02-01-25"),
		},
		Submissions: []domain.Record{
			testutil.Submission("ORG A", "01-05-25"),
		},
	}

	d, err := fx.service.BuildDashboard(context.Background(), "csu", "org a", mustRange(t, "01-01-25", "06-30-25"), false)
	require.NoError(t, err)

	assert.Equal(t, domain.OrganizationTotals{
		Organization:  "Org A",
		Registrations: 1,
		Enrollments:   1,
		Certificates:  1,
	}, d.Totals)
	assert.Len(t, d.Enrollments, 1)
	require.Len(t, d.Certificates, 1)
	assert.Equal(t, "02-01-25", d.Certificates[0].IssueDate)
}

func TestReportService_DatasetsCaching(t *testing.T) {
	fx := newServiceFixture(t, true)
	ctx := context.Background()

	_, fromCache, err := fx.service.Datasets(ctx, "csu", false)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 1, fx.fetcher.callCount("csu"))

	snap, fromCache, err := fx.service.Datasets(ctx, "csu", false)
	require.NoError(t, err)
	assert.True(t, fromCache, "memory cache should serve the second call")
	assert.Len(t, snap.Datasets.Registrants, 5)
	assert.Equal(t, 1, fx.fetcher.callCount("csu"))

	_, fromCache, err = fx.service.Datasets(ctx, "csu", true)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 2, fx.fetcher.callCount("csu"))
}

func TestReportService_FileCacheFreshness(t *testing.T) {
	fx := newServiceFixture(t, false)
	ctx := context.Background()

	require.NoError(t, fx.files.SaveDatasets("csu", fixtureDatasets(), fx.now.Add(-30*time.Minute)))

	_, fromCache, err := fx.service.Datasets(ctx, "csu", false)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, 0, fx.fetcher.callCount("csu"))

	fx.now = fx.now.Add(time.Hour)
	_, fromCache, err = fx.service.Datasets(ctx, "csu", false)
	require.NoError(t, err)
	assert.False(t, fromCache, "stale file cache should be refetched")
	assert.Equal(t, 1, fx.fetcher.callCount("csu"))
}

func TestReportService_MemoryHonoursFileAge(t *testing.T) {
	fx := newServiceFixture(t, true)
	ctx := context.Background()

	require.NoError(t, fx.files.SaveDatasets("csu", fixtureDatasets(), fx.now.Add(-50*time.Minute)))

	_, fromCache, err := fx.service.Datasets(ctx, "csu", false)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, 0, fx.fetcher.callCount("csu"))

	// the rows are now older than the cache TTL although the memory entry is only 20 minutes old
	fx.now = fx.now.Add(20 * time.Minute)
	snap, fromCache, err := fx.service.Datasets(ctx, "csu", false)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 1, fx.fetcher.callCount("csu"))
	assert.True(t, snap.FetchedAt.Equal(fx.now))
}

func TestReportService_RefreshAll(t *testing.T) {
	fx := newServiceFixture(t, false)
	boom := stderrors.New("quota exceeded")
	fx.fetcher.fail["ccc"] = boom

	err := fx.service.RefreshAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 1, fx.fetcher.callCount("csu"))
	assert.Equal(t, 1, fx.fetcher.callCount("ccc"))

	failed := testutil.AssertLogged(t, fx.logs, slog.LevelError, "enterprise refresh failed")
	assert.Equal(t, "ccc", failed.Attrs["enterprise"])
	assert.Equal(t, "report", failed.Attrs["service"])

	snap, err := fx.files.LoadDatasets("csu")
	require.NoError(t, err)
	assert.Len(t, snap.Datasets.Submissions, 4)

	_, err = fx.files.LoadDatasets("ccc")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	delete(fx.fetcher.fail, "ccc")
	assert.NoError(t, fx.service.RefreshAll(context.Background()))
}

func TestReportService_ResolveRange(t *testing.T) {
	fx := newServiceFixture(t, false)

	tests := []struct {
		name      string
		start     string
		end       string
		wantStart string
		wantEnd   string
		wantErr   bool
	}{
		{name: "defaults", wantStart: "01-01-25", wantEnd: "03-15-25"},
		{name: "explicit", start: "02-01-25", end: "02-28-25", wantStart: "02-01-25", wantEnd: "02-28-25"},
		{name: "inverted", start: "03-01-25", end: "02-01-25", wantErr: true},
		{name: "malformed", start: "2025-01-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := fx.service.ResolveRange("csu", tt.start, tt.end)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, r.StartString())
			assert.Equal(t, tt.wantEnd, r.EndString())
		})
	}

	_, err := fx.service.ResolveRange("nope", "", "")
	assert.True(t, apperrors.IsNotFound(err))
}
