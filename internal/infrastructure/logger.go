package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"otter/internal/config"
)

// process-wide logger and the log file behind it, if any
var logState struct {
	mu     sync.Mutex
	logger *slog.Logger
	file   *os.File
}

// InitializeLogger builds the process logger from cfg and installs it as the
// slog default. Later calls return the first logger unchanged.
// Console output is stderr; stdout is reserved for rendered reports.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	logState.mu.Lock()
	defer logState.mu.Unlock()

	if logState.logger != nil {
		return logState.logger, nil
	}

	out, file, err := logOutput(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}

	logger := slog.New(newRunHandler(out, cfg.Level, true))
	logState.logger = logger
	logState.file = file
	slog.SetDefault(logger)
	return logger, nil
}

// NewLogger builds a JSON logger writing to w without touching the process logger
func NewLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(newRunHandler(w, level, false))
}

// logOutput picks the writer for cfg.Output; file is non-nil when a log file was opened
func logOutput(cfg config.LoggingConfig, console io.Writer) (io.Writer, *os.File, error) {
	switch strings.ToLower(cfg.Output) {
	case "file", "both":
		file, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, nil, err
		}
		if strings.EqualFold(cfg.Output, "both") {
			return io.MultiWriter(console, file), file, nil
		}
		return file, file, nil
	default:
		return console, nil, nil
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}

// runHandler adds run_id from the context and, inside a recording span,
// the span's trace_id and span_id.
type runHandler struct {
	slog.Handler
}

func newRunHandler(w io.Writer, level string, addSource bool) *runHandler {
	return &runHandler{Handler: slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: addSource,
		Level:     parseLogLevel(level),
	})}
}

func (h *runHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RunID(ctx); id != "" {
		r.AddAttrs(slog.String("run_id", id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *runHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &runHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *runHandler) WithGroup(name string) slog.Handler {
	return &runHandler{Handler: h.Handler.WithGroup(name)}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// CloseLogFile closes the log file opened by InitializeLogger, if any
func CloseLogFile() error {
	logState.mu.Lock()
	defer logState.mu.Unlock()

	if logState.file == nil {
		return nil
	}
	err := logState.file.Close()
	logState.file = nil
	return err
}

// ResetLoggerForTesting drops the process logger so the next InitializeLogger builds a new one
func ResetLoggerForTesting() {
	CloseLogFile()
	logState.mu.Lock()
	logState.logger = nil
	logState.mu.Unlock()
}
