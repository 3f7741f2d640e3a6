package cache

import (
	"strings"
	"sync"
	"time"

	"otter/pkg/contracts/domain"
)

const defaultCleanupInterval = 5 * time.Minute

// Snapshot is the full set of rows of one enterprise at a point in time
type Snapshot struct {
	Enterprise string
	Datasets   domain.Datasets
	FetchedAt  time.Time
}

type memoryEntry struct {
	snapshot  Snapshot
	cachedAt  time.Time
	expiresAt time.Time
	hitCount  int
}

// Stats describes memory cache usage
type Stats struct {
	Entries   int
	MaxSize   int
	HitCount  int64
	MissCount int64
	HitRatio  float64
	TTL       time.Duration
}

// MemoryCache keeps recent snapshots in process in front of the file cache
type MemoryCache struct {
	entries   map[string]memoryEntry
	mutex     sync.RWMutex
	ttl       time.Duration
	maxSize   int
	hitCount  int64
	missCount int64
	stopChan  chan struct{}
	stopOnce  sync.Once
	now       func() time.Time
}

// Option configures a MemoryCache
type Option func(*MemoryCache)

// WithClock replaces time.Now as the source of cache time
func WithClock(now func() time.Time) Option {
	return func(c *MemoryCache) { c.now = now }
}

// NewMemoryCache creates a memory cache and starts its cleanup goroutine.
// Call Stop to release it.
func NewMemoryCache(ttl time.Duration, maxSize int, opts ...Option) *MemoryCache {
	c := &MemoryCache{
		entries:  make(map[string]memoryEntry),
		ttl:      ttl,
		maxSize:  maxSize,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	interval := defaultCleanupInterval
	if ttl > 0 && ttl < interval {
		interval = ttl
	}
	go c.cleanup(interval)

	return c
}

func cacheKey(enterprise string) string {
	return strings.ToLower(strings.TrimSpace(enterprise))
}

// Get returns the snapshot of an enterprise if present and unexpired
func (c *MemoryCache) Get(enterprise string) (Snapshot, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	key := cacheKey(enterprise)
	entry, exists := c.entries[key]
	if !exists || c.now().After(entry.expiresAt) {
		c.missCount++
		return Snapshot{}, false
	}

	entry.hitCount++
	c.entries[key] = entry
	c.hitCount++

	return entry.snapshot, true
}

// Set stores a snapshot for the cache TTL, evicting the oldest entry when full
func (c *MemoryCache) Set(snapshot Snapshot) {
	c.SetUntil(snapshot, time.Time{})
}

// SetUntil is Set with the entry expiring no later than deadline.
// A zero deadline leaves the cache TTL as the only limit.
func (c *MemoryCache) SetUntil(snapshot Snapshot, deadline time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.maxSize <= 0 {
		return
	}

	key := cacheKey(snapshot.Enterprise)
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := c.now()
	expiresAt := now.Add(c.ttl)
	if !deadline.IsZero() && deadline.Before(expiresAt) {
		expiresAt = deadline
	}
	c.entries[key] = memoryEntry{
		snapshot:  snapshot,
		cachedAt:  now,
		expiresAt: expiresAt,
	}
}

// Invalidate removes an enterprise from the cache
func (c *MemoryCache) Invalidate(enterprise string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, cacheKey(enterprise))
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() Stats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	total := c.hitCount + c.missCount
	ratio := float64(0)
	if total > 0 {
		ratio = float64(c.hitCount) / float64(total)
	}

	return Stats{
		Entries:   len(c.entries),
		MaxSize:   c.maxSize,
		HitCount:  c.hitCount,
		MissCount: c.missCount,
		HitRatio:  ratio,
		TTL:       c.ttl,
	}
}

func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.cachedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.cachedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *MemoryCache) purgeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *MemoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.purgeExpired()
		case <-c.stopChan:
			return
		}
	}
}
