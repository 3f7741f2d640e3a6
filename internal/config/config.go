package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. OTTER_CACHE_TTL.
const EnvPrefix = "OTTER"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Sheets    SheetsConfig    `yaml:"sheets" envconfig:"SHEETS"`
	Cache     CacheConfig     `yaml:"cache" envconfig:"CACHE"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/otter.log"`
}

// SheetsConfig controls access to the Google Sheets API
type SheetsConfig struct {
	CredentialsFile   string        `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	APIKey            string        `yaml:"api_key" envconfig:"API_KEY"`
	Endpoint          string        `yaml:"endpoint" envconfig:"ENDPOINT"`
	RequestsPerMinute int           `yaml:"requests_per_minute" envconfig:"REQUESTS_PER_MINUTE" default:"60"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"30s"`
	MaxRetries        int           `yaml:"max_retries" envconfig:"MAX_RETRIES" default:"3"`
	RetryBackoff      time.Duration `yaml:"retry_backoff" envconfig:"RETRY_BACKOFF" default:"2s"`
	HeaderRows        int           `yaml:"header_rows" envconfig:"HEADER_ROWS" default:"1"`
	Concurrency       int           `yaml:"concurrency" envconfig:"CONCURRENCY" default:"4"`
}

// CacheConfig contains JSON and in-memory cache settings
type CacheConfig struct {
	Dir        string        `yaml:"dir" envconfig:"DIR" default:"data/cache"`
	TTL        time.Duration `yaml:"ttl" envconfig:"TTL" default:"1h"`
	MemoryTTL  time.Duration `yaml:"memory_ttl" envconfig:"MEMORY_TTL" default:"5m"`
	MaxEntries int           `yaml:"max_entries" envconfig:"MAX_ENTRIES" default:"64"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir         string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir         string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ReportsDir      string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"data/reports"`
	LogsDir         string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
	EnterprisesFile string `yaml:"enterprises_file" envconfig:"ENTERPRISES_FILE" default:"enterprises.yaml"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	ServiceName   string  `yaml:"service_name" envconfig:"SERVICE_NAME" default:"otter"`
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1"`
	MetricsFile   string  `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Load loads configuration from environment variables and an optional YAML file.
// Variables that are explicitly set win over the file; the file wins over defaults.
// An empty configFile searches the usual locations.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// pick returns the file value unless the variable was set or the file left it empty.
func pick[T comparable](key string, envVal, fileVal T) T {
	var zero T
	if _, set := os.LookupEnv(EnvPrefix + "_" + key); set || fileVal == zero {
		return envVal
	}
	return fileVal
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(file, env Config) Config {
	out := env

	out.Logging.Level = pick("LOGGING_LEVEL", env.Logging.Level, file.Logging.Level)
	out.Logging.Output = pick("LOGGING_OUTPUT", env.Logging.Output, file.Logging.Output)
	out.Logging.FilePath = pick("LOGGING_FILE_PATH", env.Logging.FilePath, file.Logging.FilePath)

	out.Sheets.CredentialsFile = pick("SHEETS_CREDENTIALS_FILE", env.Sheets.CredentialsFile, file.Sheets.CredentialsFile)
	out.Sheets.APIKey = pick("SHEETS_API_KEY", env.Sheets.APIKey, file.Sheets.APIKey)
	out.Sheets.Endpoint = pick("SHEETS_ENDPOINT", env.Sheets.Endpoint, file.Sheets.Endpoint)
	out.Sheets.RequestsPerMinute = pick("SHEETS_REQUESTS_PER_MINUTE", env.Sheets.RequestsPerMinute, file.Sheets.RequestsPerMinute)
	out.Sheets.Timeout = pick("SHEETS_TIMEOUT", env.Sheets.Timeout, file.Sheets.Timeout)
	out.Sheets.MaxRetries = pick("SHEETS_MAX_RETRIES", env.Sheets.MaxRetries, file.Sheets.MaxRetries)
	out.Sheets.RetryBackoff = pick("SHEETS_RETRY_BACKOFF", env.Sheets.RetryBackoff, file.Sheets.RetryBackoff)
	out.Sheets.HeaderRows = pick("SHEETS_HEADER_ROWS", env.Sheets.HeaderRows, file.Sheets.HeaderRows)
	out.Sheets.Concurrency = pick("SHEETS_CONCURRENCY", env.Sheets.Concurrency, file.Sheets.Concurrency)

	out.Cache.Dir = pick("CACHE_DIR", env.Cache.Dir, file.Cache.Dir)
	out.Cache.TTL = pick("CACHE_TTL", env.Cache.TTL, file.Cache.TTL)
	out.Cache.MemoryTTL = pick("CACHE_MEMORY_TTL", env.Cache.MemoryTTL, file.Cache.MemoryTTL)
	out.Cache.MaxEntries = pick("CACHE_MAX_ENTRIES", env.Cache.MaxEntries, file.Cache.MaxEntries)

	out.Paths.BaseDir = pick("PATHS_BASE_DIR", env.Paths.BaseDir, file.Paths.BaseDir)
	out.Paths.DataDir = pick("PATHS_DATA_DIR", env.Paths.DataDir, file.Paths.DataDir)
	out.Paths.ReportsDir = pick("PATHS_REPORTS_DIR", env.Paths.ReportsDir, file.Paths.ReportsDir)
	out.Paths.LogsDir = pick("PATHS_LOGS_DIR", env.Paths.LogsDir, file.Paths.LogsDir)
	out.Paths.EnterprisesFile = pick("PATHS_ENTERPRISES_FILE", env.Paths.EnterprisesFile, file.Paths.EnterprisesFile)

	out.Telemetry.ServiceName = pick("TELEMETRY_SERVICE_NAME", env.Telemetry.ServiceName, file.Telemetry.ServiceName)
	out.Telemetry.Environment = pick("TELEMETRY_ENVIRONMENT", env.Telemetry.Environment, file.Telemetry.Environment)
	out.Telemetry.TraceExporter = pick("TELEMETRY_TRACE_EXPORTER", env.Telemetry.TraceExporter, file.Telemetry.TraceExporter)
	out.Telemetry.SampleRatio = pick("TELEMETRY_SAMPLE_RATIO", env.Telemetry.SampleRatio, file.Telemetry.SampleRatio)
	out.Telemetry.MetricsFile = pick("TELEMETRY_METRICS_FILE", env.Telemetry.MetricsFile, file.Telemetry.MetricsFile)

	return out
}

// validate validates the configuration
func (c *Config) validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid log output: %q", c.Logging.Output)
	}

	if c.Sheets.RequestsPerMinute <= 0 {
		return fmt.Errorf("sheets requests per minute must be positive")
	}

	if c.Sheets.Timeout <= 0 {
		return fmt.Errorf("sheets timeout must be positive")
	}

	if c.Sheets.MaxRetries < 0 {
		return fmt.Errorf("sheets max retries cannot be negative")
	}

	if c.Sheets.HeaderRows < 0 {
		return fmt.Errorf("sheets header rows cannot be negative")
	}

	if c.Sheets.Concurrency < 1 {
		return fmt.Errorf("sheets concurrency must be at least 1")
	}

	if c.Cache.TTL < 0 || c.Cache.MemoryTTL < 0 {
		return fmt.Errorf("cache ttl cannot be negative")
	}

	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache max entries cannot be negative")
	}

	switch c.Telemetry.TraceExporter {
	case "stdout", "none":
	default:
		return fmt.Errorf("unsupported trace exporter: %q", c.Telemetry.TraceExporter)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("trace sample ratio must be between 0 and 1")
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	// Check for config file in common locations
	locations := []string{
		"otter.yaml",
		"configs/otter.yaml",
		"../configs/otter.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/otter.log",
		},
		Sheets: SheetsConfig{
			RequestsPerMinute: 60,
			Timeout:           30 * time.Second,
			MaxRetries:        3,
			RetryBackoff:      2 * time.Second,
			HeaderRows:        1,
			Concurrency:       4,
		},
		Cache: CacheConfig{
			Dir:        "data/cache",
			TTL:        time.Hour,
			MemoryTTL:  5 * time.Minute,
			MaxEntries: 64,
		},
		Paths: PathsConfig{
			DataDir:         "data",
			ReportsDir:      "data/reports",
			LogsDir:         "logs",
			EnterprisesFile: "enterprises.yaml",
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "otter",
			Environment:   "development",
			TraceExporter: "none",
			SampleRatio:   1,
		},
	}
}
