package exporter

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"otter/pkg/contracts/domain"
)

const (
	sheetSummary       = "Summary"
	sheetOrganizations = "Organizations"
	sheetCertificates  = "Certificates"
	sheetEnrollments   = "Enrollments"
)

// workbook wraps an excelize file with a shared bold header style
type workbook struct {
	f    *excelize.File
	bold int
}

func newWorkbook(first string) (*workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", first); err != nil {
		f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	return &workbook{f: f, bold: bold}, nil
}

// writeRows writes rows starting at A1. When header is true the first row is bold.
func (wb *workbook) writeRows(sheet string, header bool, rows [][]interface{}) error {
	if idx, _ := wb.f.GetSheetIndex(sheet); idx < 0 {
		if _, err := wb.f.NewSheet(sheet); err != nil {
			return err
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := wb.f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	if header && len(rows) > 0 {
		end, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return err
		}
		if err := wb.f.SetCellStyle(sheet, "A1", end, wb.bold); err != nil {
			return err
		}
	}
	return nil
}

func (wb *workbook) writeTo(w io.Writer) error {
	defer wb.f.Close()
	_, err := wb.f.WriteTo(w)
	return err
}

func headerRow(headers []string) []interface{} {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	return row
}

func countsRow(label string, t domain.OrganizationTotals) []interface{} {
	return []interface{}{label, t.Registrations, t.Enrollments, t.Certificates}
}

func recordRow(prefix []interface{}, r domain.Record) []interface{} {
	row := make([]interface{}, 0, len(prefix)+len(r))
	row = append(row, prefix...)
	for _, v := range r {
		row = append(row, v)
	}
	return row
}

// WriteReportXLSX writes a workbook with Summary, Organizations and Certificates sheets
func WriteReportXLSX(w io.Writer, report *domain.Report) error {
	wb, err := newWorkbook(sheetSummary)
	if err != nil {
		return err
	}

	summary := [][]interface{}{
		{"Enterprise", report.EnterpriseCode},
		{"Name", report.EnterpriseName},
		{"Start", report.Start},
		{"End", report.End},
		{"Registrations", report.Totals.Registrations},
		{"Enrollments", report.Totals.Enrollments},
		{"Certificates", report.Totals.Certificates},
		{"Skipped rows", report.Metadata.SkippedRows},
		{"Generated at", report.GeneratedAt.Format(time.RFC3339)},
		{"Data fetched at", report.Metadata.DataFetchedAt.Format(time.RFC3339)},
	}
	if err := wb.writeRows(sheetSummary, false, summary); err != nil {
		wb.f.Close()
		return err
	}

	orgs := [][]interface{}{headerRow(organizationHeaders)}
	for _, o := range report.Organizations {
		orgs = append(orgs, countsRow(o.Organization, o))
	}
	orgs = append(orgs, countsRow(totalLabel, report.Totals))
	if err := wb.writeRows(sheetOrganizations, true, orgs); err != nil {
		wb.f.Close()
		return err
	}

	certs := [][]interface{}{headerRow(certificateHeaders)}
	for _, c := range report.Certificates {
		certs = append(certs, recordRow([]interface{}{c.IssueDate, c.Organization}, c.Row))
	}
	if err := wb.writeRows(sheetCertificates, true, certs); err != nil {
		wb.f.Close()
		return err
	}

	return wb.writeTo(w)
}

// WriteDashboardXLSX writes a workbook with Summary, Enrollments and Certificates sheets
func WriteDashboardXLSX(w io.Writer, d *domain.Dashboard) error {
	wb, err := newWorkbook(sheetSummary)
	if err != nil {
		return err
	}

	summary := [][]interface{}{
		headerRow(organizationHeaders),
		countsRow(d.Totals.Organization, d.Totals),
	}
	if err := wb.writeRows(sheetSummary, true, summary); err != nil {
		wb.f.Close()
		return err
	}

	enrollments := make([][]interface{}, 0, len(d.Enrollments))
	for _, r := range d.Enrollments {
		enrollments = append(enrollments, recordRow(nil, r))
	}
	if err := wb.writeRows(sheetEnrollments, false, enrollments); err != nil {
		wb.f.Close()
		return err
	}

	certs := [][]interface{}{headerRow(certificateHeaders)}
	for _, c := range d.Certificates {
		certs = append(certs, recordRow([]interface{}{c.IssueDate, c.Organization}, c.Row))
	}
	if err := wb.writeRows(sheetCertificates, true, certs); err != nil {
		wb.f.Close()
		return err
	}

	return wb.writeTo(w)
}
