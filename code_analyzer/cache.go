package code_analyzer

import (
	"sync"
	"time"

	"github.com/zeebo/xxh3"
)

// DefaultSummaryTTL bounds how long a summary is reused without being recomputed.
const DefaultSummaryTTL = 30 * time.Minute

type summaryEntry struct {
	parts    []string
	storedAt time.Time
}

// SummaryCache memoises tree-sitter summaries keyed by a hash of the file's
// language and content, so an unchanged file is never parsed twice within the TTL.
type SummaryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[uint64]summaryEntry
	stats   cacheStats
}

// NewSummaryCache creates a cache. A nil clock uses time.Now; a non-positive
// ttl uses DefaultSummaryTTL.
func NewSummaryCache(ttl time.Duration, now func() time.Time) *SummaryCache {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	if now == nil {
		now = time.Now
	}
	return &SummaryCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[uint64]summaryEntry),
		stats:   cacheStats{resetAt: now()},
	}
}

func summaryKey(language string, content []byte) uint64 {
	h := xxh3.New()
	_, _ = h.WriteString(language)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(content)
	return h.Sum64()
}

// Get returns the cached summary for content, if present and not expired.
func (c *SummaryCache) Get(language string, content []byte) ([]string, bool) {
	key := summaryKey(language, content)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.stats.recordMiss()
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, key)
		c.stats.recordMiss()
		return nil, false
	}

	c.stats.recordHit()
	return entry.parts, true
}

// Set stores a summary for content.
func (c *SummaryCache) Set(language string, content []byte, parts []string) {
	key := summaryKey(language, content)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = summaryEntry{parts: parts, storedAt: c.now()}
}

// Purge drops expired entries and returns how many were removed.
func (c *SummaryCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if now.Sub(entry.storedAt) >= c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear drops every entry and resets the counters.
func (c *SummaryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]summaryEntry)
	c.stats = cacheStats{resetAt: c.now()}
}

// Len returns the number of stored entries, expired or not.
func (c *SummaryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
