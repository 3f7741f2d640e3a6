package testutil

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"otter/pkg/contracts/domain"
)

// Registrant builds a registrant row in the default column layout
func Registrant(invited, enrolled, org, cert, issue string) domain.Record {
	c := domain.DefaultColumnMap()
	row := make(domain.Record, c.IssueDate+1)
	row[0] = "someone@example.org"
	row[c.InvitedDate] = invited
	row[c.Enrolled] = enrolled
	row[c.Organization] = org
	row[c.Certificate] = cert
	row[c.IssueDate] = issue
	return row
}

// Submission builds a submission row in the default column layout
func Submission(org, submitted string) domain.Record {
	c := domain.DefaultColumnMap()
	row := make(domain.Record, c.SubmittedDate+1)
	row[0] = "someone@example.org"
	row[c.Organization] = org
	row[c.SubmittedDate] = submitted
	return row
}

// Sheet is one worksheet of a fixture workbook
type Sheet struct {
	Name string
	Rows [][]interface{}
}

// WriteWorkbook saves the sheets, in order, to name inside a temp dir and returns the path
func WriteWorkbook(t *testing.T, name string, sheets ...Sheet) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			t.Fatalf("new sheet %s: %v", sheet.Name, err)
		}
		for r, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetSheetRow(sheet.Name, cell, &row); err != nil {
				t.Fatalf("write %s row %d: %v", sheet.Name, r+1, err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}
