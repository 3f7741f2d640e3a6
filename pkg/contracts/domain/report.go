package domain

import (
	"time"
)

// Report is the date-filtered view of one enterprise.
type Report struct {
	EnterpriseCode string               `json:"enterprise_code"`
	EnterpriseName string               `json:"enterprise_name"`
	Start          string               `json:"start"`
	End            string               `json:"end"`
	GeneratedAt    time.Time            `json:"generated_at"`
	Totals         OrganizationTotals   `json:"totals"`
	Organizations  []OrganizationTotals `json:"organizations"`
	Certificates   []CertificateEntry   `json:"certificates"`
	Metadata       ReportMetadata       `json:"metadata"`
}

// OrganizationTotals counts activity for one organization inside a date range.
type OrganizationTotals struct {
	Organization  string `json:"organization"`
	Registrations int    `json:"registrations"`
	Enrollments   int    `json:"enrollments"`
	Certificates  int    `json:"certificates"`
}

// CertificateEntry is one issued certificate.
type CertificateEntry struct {
	Organization string `json:"organization"`
	IssueDate    string `json:"issue_date"`
	Row          Record `json:"row"`
}

// Dashboard is the single-organization view.
type Dashboard struct {
	EnterpriseCode string             `json:"enterprise_code"`
	Start          string             `json:"start"`
	End            string             `json:"end"`
	Totals         OrganizationTotals `json:"totals"`
	Enrollments    []Record           `json:"enrollments"`
	Certificates   []CertificateEntry `json:"certificates"`
}

// ReportMetadata describes how a report was produced.
type ReportMetadata struct {
	RegistrantRows int       `json:"registrant_rows"`
	SubmissionRows int       `json:"submission_rows"`
	SkippedRows    int       `json:"skipped_rows"`
	DataFetchedAt  time.Time `json:"data_fetched_at"`
	FromCache      bool      `json:"from_cache"`
}

// ReportFormat defines the output format of a rendered report
type ReportFormat string

const (
	ReportFormatText ReportFormat = "text"
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatJSON ReportFormat = "json"
)

// Valid reports whether f is a supported format.
func (f ReportFormat) Valid() bool {
	switch f {
	case ReportFormatText, ReportFormatCSV, ReportFormatXLSX, ReportFormatJSON:
		return true
	}
	return false
}
