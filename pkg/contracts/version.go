package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the current version of the tools
	Version = "0.3.0"

	// CacheFormatVersion is the version of the JSON cache layout
	CacheFormatVersion = "v1"
)

var (
	// BuildTime is set during build using ldflags
	BuildTime = "unknown"

	// GitCommit is set during build using ldflags
	GitCommit = "unknown"
)

// VersionInfo contains detailed version information
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	CacheFormat  string `json:"cache_format"`
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		CacheFormat:  CacheFormatVersion,
	}
}

// GetFullVersionString returns a detailed version string for a command
func GetFullVersionString(command string) string {
	info := GetVersionInfo()
	return fmt.Sprintf(
		"%s v%s (built: %s, commit: %s, go: %s, os: %s/%s)",
		command,
		info.Version,
		info.BuildTime,
		info.GitCommit,
		info.GoVersion,
		info.OS,
		info.Architecture,
	)
}
