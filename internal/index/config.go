package index

import "runtime"

// flushThreshold is the unsaved-token count that triggers an automatic
// flush from AddWebsite, per spec: 1,000,000 tokens.
const flushThreshold = 1_000_000

// Config tunes the ambient behavior of an Index that is not part of its
// on-disk format: how eagerly it flushes, how much it caches, and how much
// parallelism it spends on a flush.
type Config struct {
	// FlushThreshold overrides the default 1,000,000-token auto-flush
	// threshold. Zero means use the default.
	FlushThreshold int
	// SegmentCacheSize bounds the number of (segment, term) query results
	// kept in the LRU cache. Zero or a negative value means the default of
	// 4096; caching cannot be turned off through Config.
	SegmentCacheSize int
	// FlushConcurrency bounds how many segment merges run concurrently
	// during a flush. Zero means runtime.NumCPU().
	FlushConcurrency int
}

// DefaultConfig returns the Config used when Open is called with a zero
// Config.
func DefaultConfig() Config {
	return Config{
		FlushThreshold:   flushThreshold,
		SegmentCacheSize: 4096,
		FlushConcurrency: runtime.NumCPU(),
	}
}

func (c Config) withDefaults() Config {
	if c.FlushThreshold <= 0 {
		c.FlushThreshold = flushThreshold
	}
	if c.SegmentCacheSize <= 0 {
		c.SegmentCacheSize = DefaultConfig().SegmentCacheSize
	}
	if c.FlushConcurrency <= 0 {
		c.FlushConcurrency = runtime.NumCPU()
	}
	return c
}
