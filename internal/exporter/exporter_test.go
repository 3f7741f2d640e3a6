package exporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"otter/internal/config"
	apperrors "otter/internal/errors"
	"otter/pkg/contracts/domain"
)

func sampleReport() *domain.Report {
	return &domain.Report{
		EnterpriseCode: "csu",
		EnterpriseName: "California State University",
		Start:          "01-01-25",
		End:            "06-30-25",
		GeneratedAt:    time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC),
		Totals:         domain.OrganizationTotals{Registrations: 3, Enrollments: 2, Certificates: 2},
		Organizations: []domain.OrganizationTotals{
			{Organization: "Chico", Registrations: 2, Enrollments: 1, Certificates: 1},
			{Organization: "Fresno", Registrations: 1, Enrollments: 1},
		},
		Certificates: []domain.CertificateEntry{
			{Organization: "Chico", IssueDate: "02-01-25", Row: domain.Record{"a@x.org", "01-10-25"}},
			{Organization: "", IssueDate: "03-03-25", Row: domain.Record{"b@x.org"}},
		},
		Metadata: domain.ReportMetadata{RegistrantRows: 10, SubmissionRows: 5, SkippedRows: 1},
	}
}

func sampleDashboard() *domain.Dashboard {
	return &domain.Dashboard{
		EnterpriseCode: "csu",
		Start:          "01-01-25",
		End:            "06-30-25",
		Totals:         domain.OrganizationTotals{Organization: "Chico", Registrations: 2, Enrollments: 1, Certificates: 1},
		Enrollments:    []domain.Record{{"a@x.org", "01-10-25", "Yes"}},
		Certificates: []domain.CertificateEntry{
			{Organization: "Chico", IssueDate: "02-01-25", Row: domain.Record{"a@x.org"}},
		},
	}
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(data, utf8BOM), "missing BOM")
	r := csv.NewReader(bytes.NewReader(data[len(utf8BOM):]))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteReport_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, domain.ReportFormatCSV, sampleReport()))

	records := readCSV(t, buf.Bytes())
	assert.Equal(t, [][]string{
		{"Enterprise", "csu", "California State University"},
		{"Range", "01-01-25", "06-30-25"},
		{"Skipped rows", "1"},
		{"Organization", "Registrations", "Enrollments", "Certificates"},
		{"Chico", "2", "1", "1"},
		{"Fresno", "1", "1", "0"},
		{"Total", "3", "2", "2"},
		{"Issue Date", "Organization"},
		{"02-01-25", "Chico"},
		{"03-03-25", ""},
	}, records)
}

func TestWriteReportCSV_NoBOM(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReportCSV(&buf, sampleReport(), CSVOptions{}))
	assert.True(t, strings.HasPrefix(buf.String(), "Enterprise,csu"))
}

func TestWriteDashboard_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDashboard(&buf, domain.ReportFormatCSV, sampleDashboard()))

	records := readCSV(t, buf.Bytes())
	assert.Equal(t, []string{"Chico", "2", "1", "1"}, records[1])
	assert.Contains(t, records, []string{"a@x.org", "01-10-25", "Yes"})
	assert.Equal(t, []string{"02-01-25", "Chico"}, records[len(records)-1])
}

func TestWriteReport_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, domain.ReportFormatText, sampleReport()))

	out := buf.String()
	for _, want := range []string{
		"California State University (csu)",
		"Range: 01-01-25 to 06-30-25",
		"Organization", "Chico", "Fresno", "Total",
		"Certificates issued: 2",
		"(none)",
		"1 rows skipped",
	} {
		assert.Contains(t, out, want)
	}
}

func TestWriteReport_TextNoCertificates(t *testing.T) {
	report := sampleReport()
	report.Certificates = nil
	report.Metadata.SkippedRows = 0

	var buf bytes.Buffer
	require.NoError(t, WriteReportText(&buf, report))
	assert.NotContains(t, buf.String(), "Certificates issued")
	assert.NotContains(t, buf.String(), "skipped")
}

func TestWriteDashboard_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDashboard(&buf, domain.ReportFormatText, sampleDashboard()))
	assert.Contains(t, buf.String(), "Chico (csu)")
	assert.Contains(t, buf.String(), "02-01-25")
}

func TestWriteReport_XLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, domain.ReportFormatXLSX, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Organizations", "Certificates"}, f.GetSheetList())

	orgs, err := f.GetRows("Organizations")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Organization", "Registrations", "Enrollments", "Certificates"},
		{"Chico", "2", "1", "1"},
		{"Fresno", "1", "1", "0"},
		{"Total", "3", "2", "2"},
	}, orgs)

	certs, err := f.GetRows("Certificates")
	require.NoError(t, err)
	require.Len(t, certs, 3)
	assert.Equal(t, []string{"02-01-25", "Chico", "a@x.org", "01-10-25"}, certs[1])

	name, err := f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "California State University", name)
}

func TestWriteDashboard_XLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDashboard(&buf, domain.ReportFormatXLSX, sampleDashboard()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Enrollments", "Certificates"}, f.GetSheetList())
	rows, err := f.GetRows("Enrollments")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a@x.org", "01-10-25", "Yes"}}, rows)
}

func TestWriteReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, domain.ReportFormatJSON, sampleReport()))

	var decoded domain.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleReport().Totals, decoded.Totals)
	assert.Len(t, decoded.Organizations, 2)
	assert.Contains(t, buf.String(), "\n  \"enterprise_code\": \"csu\"")
}

func TestWriteReport_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := WriteReport(&buf, domain.ReportFormat("pdf"), sampleReport())
	assert.True(t, apperrors.IsValidation(err))

	err = WriteDashboard(&buf, domain.ReportFormat("pdf"), sampleDashboard())
	assert.True(t, apperrors.IsValidation(err))
}

func TestDefaultFilename(t *testing.T) {
	tests := []struct {
		name   string
		org    string
		format domain.ReportFormat
		want   string
	}{
		{"report", "", domain.ReportFormatXLSX, "csu_01-01-25_06-30-25.xlsx"},
		{"text", "", domain.ReportFormatText, "csu_01-01-25_06-30-25.txt"},
		{"dashboard", "San José / Main", domain.ReportFormatCSV, "csu_San-Jos----Main_01-01-25_06-30-25.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultFilename("CSU", tt.org, "01-01-25", "06-30-25", tt.format))
		})
	}
}

func TestFileWriter_Create(t *testing.T) {
	dir := t.TempDir()
	w := NewFileWriter(&config.Paths{ReportsDir: filepath.Join(dir, "reports")}, nil)

	f, err := w.Create("report.csv")
	require.NoError(t, err)
	_, err = f.WriteString("x")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.FileExists(t, filepath.Join(dir, "reports", "report.csv"))

	explicit := filepath.Join(dir, "elsewhere", "out.json")
	f, err = w.Create(explicit)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	_, err = os.Stat(explicit)
	assert.NoError(t, err)
}
