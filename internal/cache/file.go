package cache

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "otter/internal/errors"
	"otter/pkg/contracts/domain"
)

// ErrCacheMiss is returned when no cached document exists for a dataset
var ErrCacheMiss = stderrors.New("cache miss")

// Entry is the JSON document stored for one enterprise dataset
type Entry struct {
	Enterprise string          `json:"enterprise"`
	Dataset    string          `json:"dataset"`
	FetchedAt  time.Time       `json:"fetched_at"`
	Rows       []domain.Record `json:"rows"`
}

// IsFresh reports whether the entry is younger than ttl at now.
// A non-positive ttl never expires.
func (e Entry) IsFresh(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return true
	}
	return now.Sub(e.FetchedAt) < ttl
}

// FileCache stores fetched rows as <dir>/<enterprise>/<dataset>.json
type FileCache struct {
	dir    string
	logger *slog.Logger
}

// NewFileCache creates a file cache rooted at dir
func NewFileCache(dir string, logger *slog.Logger) *FileCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileCache{
		dir:    dir,
		logger: logger.With(slog.String("component", "file_cache")),
	}
}

// Path returns the document path for an enterprise dataset
func (c *FileCache) Path(enterprise, dataset string) string {
	return filepath.Join(c.dir, strings.ToLower(enterprise), dataset+".json")
}

// Save writes the entry atomically (temp file + rename)
func (c *FileCache) Save(entry Entry) error {
	path := c.Path(entry.Enterprise, entry.Dataset)
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewCacheError("failed to create cache directory", err).
			WithContext("dir", dir)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return apperrors.NewCacheError("failed to encode cache entry", err)
	}

	tmp, err := os.CreateTemp(dir, entry.Dataset+".*.tmp")
	if err != nil {
		return apperrors.NewCacheError("failed to create temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.NewCacheError("failed to write cache entry", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.NewCacheError("failed to close cache entry", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return apperrors.NewCacheError("failed to replace cache entry", err).
			WithContext("path", path)
	}

	c.logger.Debug("cache entry saved",
		slog.String("enterprise", entry.Enterprise),
		slog.String("dataset", entry.Dataset),
		slog.Int("rows", len(entry.Rows)))
	return nil
}

// Load reads a cached dataset. A missing document yields ErrCacheMiss.
func (c *FileCache) Load(enterprise, dataset string) (*Entry, error) {
	path := c.Path(enterprise, dataset)

	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s/%s: %w", enterprise, dataset, ErrCacheMiss)
		}
		return nil, apperrors.NewCacheError("failed to read cache entry", err).
			WithContext("path", path)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, apperrors.NewCacheError("corrupt cache entry", err).
			WithContext("path", path)
	}
	return &entry, nil
}

// SaveDatasets writes both datasets of an enterprise with the same fetch time
func (c *FileCache) SaveDatasets(enterprise string, datasets domain.Datasets, fetchedAt time.Time) error {
	if err := c.Save(Entry{
		Enterprise: enterprise,
		Dataset:    domain.DatasetRegistrants,
		FetchedAt:  fetchedAt,
		Rows:       datasets.Registrants,
	}); err != nil {
		return err
	}
	return c.Save(Entry{
		Enterprise: enterprise,
		Dataset:    domain.DatasetSubmissions,
		FetchedAt:  fetchedAt,
		Rows:       datasets.Submissions,
	})
}

// LoadDatasets reads both datasets of an enterprise. The snapshot's FetchedAt
// is the older of the two documents.
func (c *FileCache) LoadDatasets(enterprise string) (Snapshot, error) {
	registrants, err := c.Load(enterprise, domain.DatasetRegistrants)
	if err != nil {
		return Snapshot{}, err
	}
	submissions, err := c.Load(enterprise, domain.DatasetSubmissions)
	if err != nil {
		return Snapshot{}, err
	}

	fetchedAt := registrants.FetchedAt
	if submissions.FetchedAt.Before(fetchedAt) {
		fetchedAt = submissions.FetchedAt
	}

	return Snapshot{
		Enterprise: enterprise,
		Datasets: domain.Datasets{
			Registrants: registrants.Rows,
			Submissions: submissions.Rows,
		},
		FetchedAt: fetchedAt,
	}, nil
}
