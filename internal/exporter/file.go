package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"otter/internal/config"
	"otter/pkg/contracts/domain"
)

// FileWriter creates report files under the reports directory
type FileWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewFileWriter creates a file writer for the resolved paths
func NewFileWriter(paths *config.Paths, logger *slog.Logger) *FileWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWriter{paths: paths, logger: logger}
}

// DefaultFilename names a report file, e.g. csu_01-01-25_06-30-25.xlsx.
// organization is optional and added for dashboards.
func DefaultFilename(enterprise, organization, start, end string, format domain.ReportFormat) string {
	parts := []string{strings.ToLower(enterprise)}
	if organization != "" {
		parts = append(parts, sanitizeName(organization))
	}
	parts = append(parts, start, end)
	ext := string(format)
	if format == domain.ReportFormatText {
		ext = "txt"
	}
	return strings.Join(parts, "_") + "." + ext
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '-'
		}
	}, strings.TrimSpace(name))
}

// Create opens a report file for writing, truncating any existing file.
// Bare file names are placed in the reports directory.
func (w *FileWriter) Create(filePath string) (*os.File, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing report file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// resolvePath resolves a path to the appropriate directory
func (w *FileWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || filepath.Base(filePath) != filePath {
		return filePath
	}
	return w.paths.GetReportPath(filePath)
}
