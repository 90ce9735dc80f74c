package cache

import (
	"sync"
	"time"

	"github.com/sitroom/sitrep/internal/domain"
)

// LatestKey is the fixed key the engine caches its newest result under.
const LatestKey = "latest"

// ResultCache holds analysis results with time-based expiration only; there
// is no size or LRU eviction. A new run replaces its entry wholesale.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	stats   Stats

	stopCh   chan struct{}
	stopOnce sync.Once
}

type entry struct {
	result  *domain.AnalysisResult
	expires time.Time
}

// Stats reports cache hit/miss counters.
type Stats struct {
	Hits   int64
	Misses int64
}

// New creates a result cache and starts its cleanup goroutine.
func New() *ResultCache {
	c := &ResultCache{
		entries: make(map[string]*entry),
		stopCh:  make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Get returns the cached result if present and not expired.
func (c *ResultCache) Get(key string) (*domain.AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expires) {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	return e.result, true
}

// Set stores a result under key, replacing any previous entry.
func (c *ResultCache) Set(key string, result *domain.AnalysisResult, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{result: result, expires: time.Now().Add(ttl)}
}

// Stats returns a snapshot of the hit/miss counters.
func (c *ResultCache) SnapshotStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Stop shuts down the cleanup goroutine.
func (c *ResultCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *ResultCache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *ResultCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, key)
		}
	}
}
