package sheets

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Source returns the cell values of an A1 range as strings.
// Trailing empty cells of a row may be omitted.
type Source interface {
	FetchRange(ctx context.Context, spreadsheetID, a1Range string) ([][]string, error)
}

// IsWorkbookPath reports whether a spreadsheet ID names a local workbook file
func IsWorkbookPath(spreadsheetID string) bool {
	switch strings.ToLower(filepath.Ext(spreadsheetID)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// RoutingSource sends workbook paths to Workbooks and everything else to Sheets.
// Either may be nil when that kind of source is not configured.
type RoutingSource struct {
	Sheets    Source
	Workbooks Source
}

// FetchRange implements Source
func (r RoutingSource) FetchRange(ctx context.Context, spreadsheetID, a1Range string) ([][]string, error) {
	if IsWorkbookPath(spreadsheetID) {
		if r.Workbooks == nil {
			return nil, fmt.Errorf("no workbook source for %s: %w", spreadsheetID, ErrNoCredentials)
		}
		return r.Workbooks.FetchRange(ctx, spreadsheetID, a1Range)
	}
	if r.Sheets == nil {
		return nil, fmt.Errorf("spreadsheet %s: %w", spreadsheetID, ErrNoCredentials)
	}
	return r.Sheets.FetchRange(ctx, spreadsheetID, a1Range)
}

func cellString(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	default:
		return fmt.Sprint(c)
	}
}
