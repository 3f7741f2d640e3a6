package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"otter/pkg/contracts/domain"
)

// utf8BOM helps Excel recognise UTF-8 CSV files
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures CSV writing behavior
type CSVOptions struct {
	BOMPrefix bool
}

// csvSection is a titled block of rows separated from the next by a blank line
type csvSection struct {
	Headers []string
	Records [][]string
}

func writeCSV(w io.Writer, opts CSVOptions, sections ...csvSection) error {
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	for i, section := range sections {
		if i > 0 {
			if err := writer.Write([]string{}); err != nil {
				return fmt.Errorf("failed to write separator: %w", err)
			}
		}
		if len(section.Headers) > 0 {
			if err := writer.Write(section.Headers); err != nil {
				return fmt.Errorf("failed to write headers: %w", err)
			}
		}
		for j, record := range section.Records {
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write record %d: %w", j, err)
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteReportCSV writes the report as CSV: a summary block, the organization
// table with a total row, then the certificate list.
func WriteReportCSV(w io.Writer, report *domain.Report, opts CSVOptions) error {
	summary := csvSection{
		Records: [][]string{
			{"Enterprise", report.EnterpriseCode, report.EnterpriseName},
			{"Range", report.Start, report.End},
			{"Skipped rows", strconv.Itoa(report.Metadata.SkippedRows)},
		},
	}

	orgs := csvSection{Headers: organizationHeaders}
	for _, o := range report.Organizations {
		orgs.Records = append(orgs.Records, totalsRow(o.Organization, o))
	}
	orgs.Records = append(orgs.Records, totalsRow(totalLabel, report.Totals))

	certs := csvSection{Headers: certificateHeaders}
	for _, c := range report.Certificates {
		certs.Records = append(certs.Records, []string{c.IssueDate, c.Organization})
	}

	return writeCSV(w, opts, summary, orgs, certs)
}

// WriteDashboardCSV writes a single-organization dashboard as CSV
func WriteDashboardCSV(w io.Writer, d *domain.Dashboard, opts CSVOptions) error {
	summary := csvSection{
		Headers: organizationHeaders,
		Records: [][]string{totalsRow(d.Totals.Organization, d.Totals)},
	}

	enrollments := csvSection{Headers: []string{"Enrollments"}}
	for _, row := range d.Enrollments {
		enrollments.Records = append(enrollments.Records, []string(row))
	}

	certs := csvSection{Headers: certificateHeaders}
	for _, c := range d.Certificates {
		certs.Records = append(certs.Records, []string{c.IssueDate, c.Organization})
	}

	return writeCSV(w, opts, summary, enrollments, certs)
}
