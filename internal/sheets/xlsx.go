package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "otter/internal/errors"
)

// XLSXSource reads ranges from exported workbooks. The spreadsheet ID is the
// workbook path and the A1 range selects the sheet and optional cell bounds.
type XLSXSource struct {
	logger *slog.Logger
}

// NewXLSXSource creates a workbook source
func NewXLSXSource(logger *slog.Logger) *XLSXSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXSource{logger: logger.With(slog.String("component", "xlsx"))}
}

// FetchRange implements Source
func (s *XLSXSource) FetchRange(ctx context.Context, path, a1Range string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sheet, bounds, err := parseA1(a1Range)
	if err != nil {
		return nil, apperrors.NewParsingError("invalid range", err).WithContext("range", a1Range)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewSheetsError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewSheetsError("failed to read sheet", err).
			WithContext("path", path).
			WithContext("sheet", sheet)
	}

	result := bounds.apply(rows)
	s.logger.DebugContext(ctx, "workbook range read",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("rows", len(result)))
	return result, nil
}

// cellBounds holds 1-based inclusive limits; zero means unbounded.
type cellBounds struct {
	firstCol, lastCol int
	firstRow, lastRow int
}

// parseA1 splits "Sheet!A2:P" into the sheet name and its bounds.
// A range without "!" names a whole sheet.
func parseA1(a1Range string) (string, cellBounds, error) {
	var b cellBounds
	idx := strings.LastIndex(a1Range, "!")
	if idx < 0 {
		return strings.Trim(a1Range, "'"), b, nil
	}

	sheet := strings.Trim(a1Range[:idx], "'")
	ref := strings.TrimSpace(a1Range[idx+1:])
	if ref == "" {
		return sheet, b, nil
	}

	start, end, found := strings.Cut(ref, ":")
	if !found {
		end = start
	}

	var err error
	if b.firstCol, b.firstRow, err = splitRef(start); err != nil {
		return "", b, err
	}
	if b.lastCol, b.lastRow, err = splitRef(end); err != nil {
		return "", b, err
	}
	return sheet, b, nil
}

// splitRef parses "P", "2" or "P12" into column and row numbers
func splitRef(ref string) (int, int, error) {
	ref = strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(ref, "$", "")))
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		i++
	}

	col, row := 0, 0
	if i > 0 {
		n, err := excelize.ColumnNameToNumber(ref[:i])
		if err != nil {
			return 0, 0, err
		}
		col = n
	}
	if i < len(ref) {
		n, err := strconv.Atoi(ref[i:])
		if err != nil || n < 1 {
			return 0, 0, fmt.Errorf("invalid row in %q", ref)
		}
		row = n
	}
	if col == 0 && row == 0 {
		return 0, 0, fmt.Errorf("empty cell reference")
	}
	return col, row, nil
}

func (b cellBounds) apply(rows [][]string) [][]string {
	result := make([][]string, 0, len(rows))
	for i, row := range rows {
		rowNum := i + 1
		if b.firstRow > 0 && rowNum < b.firstRow {
			continue
		}
		if b.lastRow > 0 && rowNum > b.lastRow {
			break
		}

		start := 0
		if b.firstCol > 0 {
			start = b.firstCol - 1
		}
		end := len(row)
		if b.lastCol > 0 && b.lastCol < end {
			end = b.lastCol
		}
		if start >= end {
			result = append(result, []string{})
			continue
		}
		result = append(result, row[start:end])
	}
	return result
}
