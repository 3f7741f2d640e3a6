package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	apperrors "otter/internal/errors"
	"otter/pkg/contracts/domain"
)

const totalLabel = "Total"

var (
	organizationHeaders = []string{"Organization", "Registrations", "Enrollments", "Certificates"}
	certificateHeaders  = []string{"Issue Date", "Organization"}
)

func totalsRow(label string, t domain.OrganizationTotals) []string {
	return []string{
		label,
		strconv.Itoa(t.Registrations),
		strconv.Itoa(t.Enrollments),
		strconv.Itoa(t.Certificates),
	}
}

// organizationLabel names rows that carry no organization
func organizationLabel(name string) string {
	if name == "" {
		return "(none)"
	}
	return name
}

// WriteReport renders a report in the requested format
func WriteReport(w io.Writer, format domain.ReportFormat, report *domain.Report) error {
	var err error
	switch format {
	case domain.ReportFormatText:
		err = WriteReportText(w, report)
	case domain.ReportFormatCSV:
		err = WriteReportCSV(w, report, CSVOptions{BOMPrefix: true})
	case domain.ReportFormatXLSX:
		err = WriteReportXLSX(w, report)
	case domain.ReportFormatJSON:
		err = writeJSON(w, report)
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unsupported format %q", format), nil)
	}
	if err != nil {
		return apperrors.NewExportError("failed to render report", err).WithContext("format", string(format))
	}
	return nil
}

// WriteDashboard renders a dashboard in the requested format
func WriteDashboard(w io.Writer, format domain.ReportFormat, d *domain.Dashboard) error {
	var err error
	switch format {
	case domain.ReportFormatText:
		err = WriteDashboardText(w, d)
	case domain.ReportFormatCSV:
		err = WriteDashboardCSV(w, d, CSVOptions{BOMPrefix: true})
	case domain.ReportFormatXLSX:
		err = WriteDashboardXLSX(w, d)
	case domain.ReportFormatJSON:
		err = writeJSON(w, d)
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unsupported format %q", format), nil)
	}
	if err != nil {
		return apperrors.NewExportError("failed to render dashboard", err).WithContext("format", string(format))
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
