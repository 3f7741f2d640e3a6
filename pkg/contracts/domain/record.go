package domain

import "strings"

// Record is a single spreadsheet row. Indices carry meaning only through a ColumnMap.
type Record []string

// Field returns the trimmed value at index i, or "" when the row is too short.
func (r Record) Field(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

// Flag reports whether the field at index i is a "Yes" marker.
// Anything else ("-", "", "No") counts as unset.
func (r Record) Flag(i int) bool {
	return strings.EqualFold(r.Field(i), "yes")
}

// ColumnMap assigns meaning to record indices for one enterprise.
type ColumnMap struct {
	InvitedDate   int `json:"invited_date" yaml:"invited_date" validate:"min=0"`
	Enrolled      int `json:"enrolled" yaml:"enrolled" validate:"min=0"`
	Organization  int `json:"organization" yaml:"organization" validate:"min=0"`
	Certificate   int `json:"certificate" yaml:"certificate" validate:"min=0"`
	IssueDate     int `json:"issue_date" yaml:"issue_date" validate:"min=0"`
	SubmittedDate int `json:"submitted_date" yaml:"submitted_date" validate:"min=0"`
}

// DefaultColumnMap returns the layout used by the registrant and submission sheets.
func DefaultColumnMap() ColumnMap {
	return ColumnMap{
		InvitedDate:   1,
		Enrolled:      2,
		Organization:  9,
		Certificate:   10,
		IssueDate:     11,
		SubmittedDate: 15,
	}
}

// UnmarshalYAML starts from DefaultColumnMap so a partial columns block
// only overrides the indices it names.
func (c *ColumnMap) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain ColumnMap
	out := plain(DefaultColumnMap())
	if err := unmarshal(&out); err != nil {
		return err
	}
	*c = ColumnMap(out)
	return nil
}
