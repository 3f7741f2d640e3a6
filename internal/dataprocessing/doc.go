// Package dataprocessing filters enterprise spreadsheet rows by date range and
// aggregates them into the counts shown on every report.
//
// # Buckets
//
// Three buckets are built from two sheets:
//
//	Registrations  submission rows, submitted date in range
//	Enrollments    registrant rows flagged "Yes" enrolled, invited date in range
//	Certificates   registrant rows flagged "Yes" certified, issue date in range
//
// Which column holds which field comes from a domain.ColumnMap, configured per
// enterprise.
//
// # Dates
//
// All dates use the MM-DD-YY layout. Range bounds are inclusive. A row whose
// relevant date cannot be parsed is excluded from its bucket and counted in
// Summary.Skipped.
//
// # Usage
//
//	r, err := dataprocessing.NewDateRange("01-01-25", "03-31-25")
//	if err != nil {
//	    return err
//	}
//	p := dataprocessing.NewProcessor(enterprise.ColumnLayout(), logger)
//	summary := p.ProcessRegistrantsData(data.Registrants, data.Submissions, r)
//	table := p.ProcessOrganizationData(summary, enterprise.Organizations)
package dataprocessing
