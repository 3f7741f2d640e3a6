// Package config provides centralized configuration management for otter.
// It loads settings from the environment and an optional YAML file, resolves
// filesystem paths and reads the enterprise registry.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file (otter.yaml)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern OTTER_<SECTION>_<FIELD>:
//
//	OTTER_LOGGING_LEVEL=debug
//	OTTER_SHEETS_CREDENTIALS_FILE=/etc/otter/service-account.json
//	OTTER_SHEETS_REQUESTS_PER_MINUTE=60
//	OTTER_CACHE_TTL=30m
//	OTTER_TELEMETRY_METRICS_FILE=/var/lib/node_exporter/otter.prom
//
// # Enterprise Registry
//
// Tenants are listed in enterprises.yaml:
//
//	enterprises:
//	  - code: csu
//	    name: California State University
//	    spreadsheet_id: 1AbC...
//	    registrants_range: Registrants!A:P
//	    submissions_range: Submissions!A:P
//	    start_date: 08-01-24
//	    organizations: [Bakersfield, Chico]
//	    columns:            # optional, defaults shown
//	      invited_date: 1
//	      enrolled: 2
//	      organization: 9
//	      certificate: 10
//	      issue_date: 11
//	      submitted_date: 15
package config
