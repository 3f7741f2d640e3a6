// Package sheets reads enterprise rows from Google Sheets or exported workbooks.
//
// SheetsSource talks to the Sheets v4 API with throttling and retries.
// XLSXSource reads the same A1 ranges from a local .xlsx file, which is handy
// for offline runs and fixtures. Fetcher pulls both datasets of an enterprise
// concurrently and strips header rows.
package sheets
