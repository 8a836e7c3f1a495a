package code_analyzer

import "time"

// cacheStats counts lookups. It is guarded by the owning SummaryCache's mutex.
type cacheStats struct {
	hits    int64
	misses  int64
	resetAt time.Time
}

func (s *cacheStats) recordHit() {
	s.hits++
}

func (s *cacheStats) recordMiss() {
	s.misses++
}

// CacheStats is a point-in-time view of cache effectiveness.
type CacheStats struct {
	Entries        int
	Hits           int64
	Misses         int64
	HitRatePercent float64
	Since          time.Duration
}

// Stats returns lookup counters since creation or the last Clear.
func (c *SummaryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.stats.hits + c.stats.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.stats.hits) / float64(total) * 100
	}

	return CacheStats{
		Entries:        len(c.entries),
		Hits:           c.stats.hits,
		Misses:         c.stats.misses,
		HitRatePercent: hitRate,
		Since:          c.now().Sub(c.stats.resetAt),
	}
}
