package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otter/internal/dataprocessing"
	"otter/internal/infrastructure"
	"otter/internal/shared/testutil"
	"otter/pkg/contracts/domain"
)

func setupWorkspace(t *testing.T) (configFile, enterprisesFile, metricsFile string) {
	t.Helper()
	dir := t.TempDir()

	workbook := testutil.WriteWorkbook(t, "csu.xlsx",
		testutil.Sheet{Name: "Registrants", Rows: [][]interface{}{
			{"Email", "Invited", "Enrolled", "Org", "Cert", "Issued"},
			{"a@x.org", "01-10-25", "Yes", "Chico", "Yes", "02-01-25"},
			{"b@x.org", "01-20-25", "Yes", "Fresno", "-"},
		}},
		testutil.Sheet{Name: "Submissions", Rows: [][]interface{}{
			{"Email", "Submitted", "Notes", "Org"},
			{"c@x.org", "01-05-25", "", "Chico"},
		}},
	)

	enterprisesFile = filepath.Join(dir, "enterprises.yaml")
	require.NoError(t, os.WriteFile(enterprisesFile, []byte(fmt.Sprintf(`
enterprises:
  - code: csu
    name: California State University
    spreadsheet_id: %s
    registrants_range: Registrants
    submissions_range: Submissions
    start_date: 01-01-25
    organizations: [Chico, Fresno]
    columns:
      invited_date: 1
      enrolled: 2
      organization: 3
      certificate: 4
      issue_date: 5
      submitted_date: 1
`, workbook)), 0644))

	metricsFile = filepath.Join(dir, "otter.prom")
	configFile = filepath.Join(dir, "otter.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(fmt.Sprintf(`
logging:
  level: error
paths:
  base_dir: %s
telemetry:
  metrics_file: %s
`, dir, metricsFile)), 0644))

	return configFile, enterprisesFile, metricsFile
}

func TestNewApplication_EndToEnd(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	configFile, enterprisesFile, metricsFile := setupWorkspace(t)
	ctx := context.Background()

	application, err := NewApplication(ctx, Options{
		Command:         "otter-test",
		ConfigFile:      configFile,
		EnterprisesFile: enterprisesFile,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"csu"}, application.Enterprises.Codes())
	assert.DirExists(t, application.Paths.CacheDir)

	require.NoError(t, application.Reports.RefreshAll(ctx))
	assert.FileExists(t, filepath.Join(application.Paths.CacheDir, "csu", "registrants.json"))

	r, err := dataprocessing.NewDateRange("01-01-25", "06-30-25")
	require.NoError(t, err)

	report, err := application.Reports.BuildReport(ctx, "csu", r, false)
	require.NoError(t, err)
	assert.True(t, report.Metadata.FromCache)
	assert.Equal(t, domain.OrganizationTotals{Registrations: 1, Enrollments: 2, Certificates: 1}, report.Totals)
	assert.Equal(t, []domain.OrganizationTotals{
		{Organization: "Chico", Registrations: 1, Enrollments: 1, Certificates: 1},
		{Organization: "Fresno", Enrollments: 1},
	}, report.Organizations)

	require.NoError(t, application.Close(ctx))

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "otter_reports_built")
	assert.Contains(t, string(metrics), "otter_sheet_fetches")
}

func TestNewApplication_MissingEnterprises(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	configFile, _, _ := setupWorkspace(t)

	_, err := NewApplication(context.Background(), Options{
		Command:         "otter-test",
		ConfigFile:      configFile,
		EnterprisesFile: filepath.Join(t.TempDir(), "missing.yaml"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load enterprises")
}
