// Package app wires the otter commands together.
//
// NewApplication runs the startup sequence shared by otter-refresh and
// otter-report:
//
//	1. Load configuration from environment and otter.yaml
//	2. Resolve and create data, cache, report and log directories
//	3. Initialize logging and OpenTelemetry
//	4. Load the enterprise registry
//	5. Build the spreadsheet source, caches and report service
//
// Close releases everything in reverse and writes the Prometheus metrics file
// when one is configured.
package app
