package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all resolved application paths
// This is the single source of truth for file locations
type Paths struct {
	BaseDir         string
	DataDir         string
	CacheDir        string
	ReportsDir      string
	LogsDir         string
	LogFile         string
	EnterprisesFile string
}

// ResolvePaths turns the configured paths into absolute paths.
// Relative entries are joined onto Paths.BaseDir, or the working directory when unset.
func (c *Config) ResolvePaths() (*Paths, error) {
	base := c.Paths.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}

	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	return &Paths{
		BaseDir:         base,
		DataDir:         resolve(c.Paths.DataDir),
		CacheDir:        resolve(c.Cache.Dir),
		ReportsDir:      resolve(c.Paths.ReportsDir),
		LogsDir:         resolve(c.Paths.LogsDir),
		LogFile:         resolve(c.Logging.FilePath),
		EnterprisesFile: resolve(c.Paths.EnterprisesFile),
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.CacheDir,
		p.ReportsDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// GetReportPath returns the path for a rendered report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("cache", p.CacheDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("log", p.LogFile),
			slog.String("enterprises", p.EnterprisesFile),
		))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
