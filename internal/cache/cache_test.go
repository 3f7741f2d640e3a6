package cache

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	apperrors "otter/internal/errors"
	"otter/pkg/contracts/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testDatasets() domain.Datasets {
	return domain.Datasets{
		Registrants: []domain.Record{
			{"a@x.org", "01-15-25", "Yes", "", "", "", "", "", "", "Org A", "-", ""},
		},
		Submissions: []domain.Record{
			{"b@x.org", "", "", "", "", "", "", "", "", "Org B"},
		},
	}
}

func TestFileCache_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	c := NewFileCache(dir, nil)
	fetchedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	entry := Entry{
		Enterprise: "CSU",
		Dataset:    domain.DatasetRegistrants,
		FetchedAt:  fetchedAt,
		Rows:       testDatasets().Registrants,
	}
	require.NoError(t, c.Save(entry))

	assert.FileExists(t, filepath.Join(dir, "csu", "registrants.json"))

	loaded, err := c.Load("csu", domain.DatasetRegistrants)
	require.NoError(t, err)
	assert.Equal(t, entry.Rows, loaded.Rows)
	assert.True(t, loaded.FetchedAt.Equal(fetchedAt))

	// no temp files left behind
	files, err := os.ReadDir(filepath.Join(dir, "csu"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestFileCache_Miss(t *testing.T) {
	c := NewFileCache(t.TempDir(), nil)

	_, err := c.Load("csu", domain.DatasetSubmissions)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrCacheMiss))

	_, err = c.LoadDatasets("csu")
	assert.True(t, stderrors.Is(err, ErrCacheMiss))
}

func TestFileCache_Corrupt(t *testing.T) {
	dir := t.TempDir()
	c := NewFileCache(dir, nil)
	path := c.Path("csu", domain.DatasetRegistrants)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := c.Load("csu", domain.DatasetRegistrants)
	require.Error(t, err)
	assert.False(t, stderrors.Is(err, ErrCacheMiss))
	assert.Equal(t, apperrors.ErrTypeCache, apperrors.TypeOf(err))
}

func TestFileCache_Datasets(t *testing.T) {
	c := NewFileCache(t.TempDir(), nil)
	fetchedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, c.SaveDatasets("csu", testDatasets(), fetchedAt))

	// make submissions older than registrants
	older := fetchedAt.Add(-time.Hour)
	require.NoError(t, c.Save(Entry{
		Enterprise: "csu",
		Dataset:    domain.DatasetSubmissions,
		FetchedAt:  older,
		Rows:       testDatasets().Submissions,
	}))

	snap, err := c.LoadDatasets("CSU")
	require.NoError(t, err)
	assert.Equal(t, testDatasets(), snap.Datasets)
	assert.True(t, snap.FetchedAt.Equal(older))
}

func TestEntry_IsFresh(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := Entry{FetchedAt: now.Add(-30 * time.Minute)}

	tests := []struct {
		name string
		ttl  time.Duration
		want bool
	}{
		{"within ttl", time.Hour, true},
		{"expired", 10 * time.Minute, false},
		{"exactly ttl is stale", 30 * time.Minute, false},
		{"zero ttl never expires", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, entry.IsFresh(tt.ttl, now))
		})
	}
}

func TestMemoryCache_Lifecycle(t *testing.T) {
	c := NewMemoryCache(time.Minute, 10)
	defer c.Stop()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, ok := c.Get("csu")
	assert.False(t, ok)

	c.Set(Snapshot{Enterprise: "CSU", Datasets: testDatasets(), FetchedAt: now})

	snap, ok := c.Get("csu")
	require.True(t, ok)
	assert.Equal(t, testDatasets(), snap.Datasets)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(1), stats.HitCount)
	assert.Equal(t, int64(1), stats.MissCount)
	assert.Equal(t, 0.5, stats.HitRatio)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("csu")
	assert.False(t, ok, "expired entry should miss")

	c.purgeExpired()
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestMemoryCache_SetUntil(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Hour, 4, WithClock(func() time.Time { return now }))
	defer c.Stop()

	tests := []struct {
		name     string
		deadline time.Time
		wantAt   time.Duration
	}{
		{name: "earlier deadline wins", deadline: now.Add(10 * time.Minute), wantAt: 10 * time.Minute},
		{name: "later deadline keeps ttl", deadline: now.Add(3 * time.Hour), wantAt: time.Hour},
		{name: "zero deadline keeps ttl", wantAt: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := now
			c.SetUntil(Snapshot{Enterprise: "csu"}, tt.deadline)

			now = start.Add(tt.wantAt)
			_, ok := c.Get("csu")
			assert.True(t, ok, "entry should live until its expiry")

			now = start.Add(tt.wantAt + time.Second)
			_, ok = c.Get("csu")
			assert.False(t, ok, "entry should be gone after its expiry")

			now = start
			c.Invalidate("csu")
		})
	}
}

func TestMemoryCache_EvictsOldest(t *testing.T) {
	c := NewMemoryCache(time.Hour, 2)
	defer c.Stop()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(Snapshot{Enterprise: "one"})
	now = now.Add(time.Second)
	c.Set(Snapshot{Enterprise: "two"})
	now = now.Add(time.Second)
	c.Set(Snapshot{Enterprise: "three"})

	_, ok := c.Get("one")
	assert.False(t, ok)
	_, ok = c.Get("two")
	assert.True(t, ok)
	_, ok = c.Get("three")
	assert.True(t, ok)

	// overwriting an existing key does not evict
	c.Set(Snapshot{Enterprise: "two"})
	assert.Equal(t, 2, c.Stats().Entries)
}

func TestMemoryCache_ZeroSize(t *testing.T) {
	c := NewMemoryCache(time.Hour, 0)
	defer c.Stop()

	c.Set(Snapshot{Enterprise: "csu"})
	_, ok := c.Get("csu")
	assert.False(t, ok)
}

func TestMemoryCache_Invalidate(t *testing.T) {
	c := NewMemoryCache(time.Hour, 4)
	defer c.Stop()

	c.Set(Snapshot{Enterprise: "csu"})
	c.Invalidate(" CSU ")
	_, ok := c.Get("csu")
	assert.False(t, ok)
}

func TestMemoryCache_StopIdempotent(t *testing.T) {
	c := NewMemoryCache(10*time.Millisecond, 1)
	c.Stop()
	assert.NotPanics(t, c.Stop)
}
