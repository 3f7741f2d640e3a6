package dataprocessing

import (
	"log/slog"
	"sort"
	"strings"

	"otter/pkg/contracts/domain"
)

// Processor filters enterprise rows by date range and groups them by organization
type Processor struct {
	columns domain.ColumnMap
	logger  *slog.Logger
}

// NewProcessor creates a processor for the given column layout
func NewProcessor(columns domain.ColumnMap, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		columns: columns,
		logger:  logger.With(slog.String("component", "processor")),
	}
}

// Columns returns the column layout the processor reads
func (p *Processor) Columns() domain.ColumnMap {
	return p.columns
}

// ProcessRegistrantsData buckets registrant and submission rows into
// registrations, enrollments and certificates inside the range.
// Rows whose relevant date is missing or malformed are counted as skipped.
func (p *Processor) ProcessRegistrantsData(registrants, submissions []domain.Record, r DateRange) Summary {
	summary := Summary{Range: r}

	for _, row := range submissions {
		in, ok := p.classify(row.Field(p.columns.SubmittedDate), r)
		if !ok {
			summary.Skipped.Registrations++
			continue
		}
		if in {
			summary.Registrations = append(summary.Registrations, row)
		}
	}

	for _, row := range registrants {
		if row.Flag(p.columns.Enrolled) {
			in, ok := p.classify(row.Field(p.columns.InvitedDate), r)
			switch {
			case !ok:
				summary.Skipped.Enrollments++
			case in:
				summary.Enrollments = append(summary.Enrollments, row)
			}
		}
		if row.Flag(p.columns.Certificate) {
			in, ok := p.classify(row.Field(p.columns.IssueDate), r)
			switch {
			case !ok:
				summary.Skipped.Certificates++
			case in:
				summary.Certificates = append(summary.Certificates, row)
			}
		}
	}

	if summary.Skipped.Total() > 0 {
		p.logger.Debug("rows skipped for unparseable dates",
			slog.Int("registrations", summary.Skipped.Registrations),
			slog.Int("enrollments", summary.Skipped.Enrollments),
			slog.Int("certificates", summary.Skipped.Certificates))
	}

	return summary
}

// classify returns (inRange, parsed).
func (p *Processor) classify(value string, r DateRange) (bool, bool) {
	t, err := ParseDate(value)
	if err != nil {
		return false, false
	}
	return r.Contains(t), true
}

// ProcessOrganizationData sums the summary per organization name.
// Every name in organizations is listed even when it has no activity.
// Rows without an organization only count toward Summary.Totals.
func (p *Processor) ProcessOrganizationData(summary Summary, organizations []string) []domain.OrganizationTotals {
	byOrg := make(map[string]*domain.OrganizationTotals)
	get := func(name string) *domain.OrganizationTotals {
		t, ok := byOrg[name]
		if !ok {
			t = &domain.OrganizationTotals{Organization: name}
			byOrg[name] = t
		}
		return t
	}

	for _, name := range organizations {
		if name = strings.TrimSpace(name); name != "" {
			get(name)
		}
	}
	for _, row := range summary.Registrations {
		if name := row.Field(p.columns.Organization); name != "" {
			get(name).Registrations++
		}
	}
	for _, row := range summary.Enrollments {
		if name := row.Field(p.columns.Organization); name != "" {
			get(name).Enrollments++
		}
	}
	for _, row := range summary.Certificates {
		if name := row.Field(p.columns.Organization); name != "" {
			get(name).Certificates++
		}
	}

	result := make([]domain.OrganizationTotals, 0, len(byOrg))
	for _, t := range byOrg {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := strings.ToLower(result[i].Organization), strings.ToLower(result[j].Organization)
		if a != b {
			return a < b
		}
		return result[i].Organization < result[j].Organization
	})
	return result
}

// Certificates lists issued certificates ordered by issue date, then organization
func (p *Processor) Certificates(summary Summary) []domain.CertificateEntry {
	entries := make([]domain.CertificateEntry, 0, len(summary.Certificates))
	for _, row := range summary.Certificates {
		entries = append(entries, domain.CertificateEntry{
			Organization: row.Field(p.columns.Organization),
			IssueDate:    row.Field(p.columns.IssueDate),
			Row:          row,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		// entries only contain parseable dates
		di, _ := ParseDate(entries[i].IssueDate)
		dj, _ := ParseDate(entries[j].IssueDate)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return entries[i].Organization < entries[j].Organization
	})
	return entries
}

// OrganizationDashboard narrows the summary to one organization, matching
// row values ignoring case
func (p *Processor) OrganizationDashboard(summary Summary, organization string) domain.Dashboard {
	organization = strings.TrimSpace(organization)
	d := domain.Dashboard{
		Start:  summary.Range.StartString(),
		End:    summary.Range.EndString(),
		Totals: domain.OrganizationTotals{Organization: organization},
	}

	for _, row := range summary.Registrations {
		if strings.EqualFold(row.Field(p.columns.Organization), organization) {
			d.Totals.Registrations++
		}
	}
	for _, row := range summary.Enrollments {
		if strings.EqualFold(row.Field(p.columns.Organization), organization) {
			d.Totals.Enrollments++
			d.Enrollments = append(d.Enrollments, row)
		}
	}
	for _, entry := range p.Certificates(summary) {
		if strings.EqualFold(entry.Organization, organization) {
			d.Totals.Certificates++
			d.Certificates = append(d.Certificates, entry)
		}
	}
	return d
}
