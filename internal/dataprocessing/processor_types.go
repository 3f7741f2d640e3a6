package dataprocessing

import (
	"otter/pkg/contracts/domain"
)

// Summary holds the rows of each bucket that fell inside a date range
type Summary struct {
	Range DateRange

	// Registrations are submission rows whose submitted date is in range
	Registrations []domain.Record

	// Enrollments are registrant rows flagged enrolled with an invited date in range
	Enrollments []domain.Record

	// Certificates are registrant rows flagged certified with an issue date in range
	Certificates []domain.Record

	Skipped SkipStats
}

// Totals returns systemwide counts, including rows with no organization.
func (s Summary) Totals() domain.OrganizationTotals {
	return domain.OrganizationTotals{
		Registrations: len(s.Registrations),
		Enrollments:   len(s.Enrollments),
		Certificates:  len(s.Certificates),
	}
}

// SkipStats counts rows dropped because the relevant date was missing or malformed
type SkipStats struct {
	Registrations int `json:"registrations"`
	Enrollments   int `json:"enrollments"`
	Certificates  int `json:"certificates"`
}

// Total returns the number of skipped rows across all buckets
func (s SkipStats) Total() int {
	return s.Registrations + s.Enrollments + s.Certificates
}
