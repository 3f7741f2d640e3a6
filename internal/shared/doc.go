// Package shared holds helpers used by more than one otter package.
//
// The testutil subpackage provides spreadsheet row builders, workbook
// fixtures and a slog handler that captures records for assertions. It is
// imported from _test.go files only.
package shared
