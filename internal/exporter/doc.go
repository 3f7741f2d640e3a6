// Package exporter renders enterprise reports and organization dashboards.
//
// Supported formats are terminal tables (lipgloss), CSV with a UTF-8 BOM for
// Excel, XLSX workbooks and indented JSON. WriteReport and WriteDashboard pick
// the renderer from a domain.ReportFormat.
//
// Example usage:
//
//	writer := exporter.NewFileWriter(paths, logger)
//	f, err := writer.Create(exporter.DefaultFilename("csu", "", "01-01-25", "06-30-25", domain.ReportFormatXLSX))
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//	err = exporter.WriteReport(f, domain.ReportFormatXLSX, report)
package exporter
