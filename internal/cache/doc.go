// Package cache keeps fetched enterprise rows between runs.
//
// FileCache persists each dataset as a JSON document so reports can be built
// without contacting Google Sheets. MemoryCache sits in front of it for
// repeated lookups within one process.
package cache
