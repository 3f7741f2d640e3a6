package exporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"otter/pkg/contracts/domain"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

// newTable builds a bordered table whose numeric columns (index >= numericFrom) are right-aligned
func newTable(headers []string, rows [][]string, numericFrom int) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case numericFrom >= 0 && col >= numericFrom:
				return numberStyle
			default:
				return cellStyle
			}
		})
}

// WriteReportText renders the report as terminal tables
func WriteReportText(w io.Writer, report *domain.Report) error {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s (%s)", report.EnterpriseName, report.EnterpriseCode)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Range: %s to %s\n\n", report.Start, report.End))

	rows := make([][]string, 0, len(report.Organizations)+1)
	for _, o := range report.Organizations {
		rows = append(rows, totalsRow(o.Organization, o))
	}
	rows = append(rows, totalsRow(totalLabel, report.Totals))
	sb.WriteString(newTable(organizationHeaders, rows, 1).String())
	sb.WriteString("\n")

	if len(report.Certificates) > 0 {
		sb.WriteString(fmt.Sprintf("\nCertificates issued: %d\n", len(report.Certificates)))
		certRows := make([][]string, 0, len(report.Certificates))
		for _, c := range report.Certificates {
			certRows = append(certRows, []string{c.IssueDate, organizationLabel(c.Organization)})
		}
		sb.WriteString(newTable(certificateHeaders, certRows, -1).String())
		sb.WriteString("\n")
	}

	if report.Metadata.SkippedRows > 0 {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("%d rows skipped for missing or malformed dates", report.Metadata.SkippedRows)))
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteDashboardText renders a single-organization dashboard
func WriteDashboardText(w io.Writer, d *domain.Dashboard) error {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s (%s)", d.Totals.Organization, d.EnterpriseCode)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Range: %s to %s\n\n", d.Start, d.End))

	sb.WriteString(newTable(organizationHeaders[1:], [][]string{totalsRow("", d.Totals)[1:]}, 0).String())
	sb.WriteString("\n")

	if len(d.Certificates) > 0 {
		sb.WriteString("\nCertificates\n")
		rows := make([][]string, 0, len(d.Certificates))
		for _, c := range d.Certificates {
			rows = append(rows, []string{c.IssueDate, c.Organization})
		}
		sb.WriteString(newTable(certificateHeaders, rows, -1).String())
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
