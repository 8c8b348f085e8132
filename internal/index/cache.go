package index

import (
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

// segmentCacheKey identifies one (segment file, term) load. The segment's
// modification time is part of the key, so a flush that rewrites the file
// naturally misses the cache on the next query instead of requiring
// explicit invalidation: a find() is correct whether or not it hits.
type segmentCacheKey struct {
	path    string
	term    string
	modTime int64
}

// segmentCache wraps an LRU of loaded postings keyed by segmentCacheKey.
// A segmentCache built by newSegmentCache with size <= 0 holds no LRU and
// disables caching: every get misses and every add is dropped.
type segmentCache struct {
	cache *lru.Cache[segmentCacheKey, map[int][]int]
}

func newSegmentCache(size int) (*segmentCache, error) {
	if size <= 0 {
		return &segmentCache{}, nil
	}
	c, err := lru.New[segmentCacheKey, map[int][]int](size)
	if err != nil {
		return nil, err
	}
	return &segmentCache{cache: c}, nil
}

// key builds a segmentCacheKey for path+term, stat'ing path for its mtime.
// A missing file yields modTime 0, which is fine: LoadTerm returns an empty
// map for a missing file regardless.
func (c *segmentCache) key(path, term string) segmentCacheKey {
	var modNS int64
	if info, err := os.Stat(path); err == nil {
		modNS = info.ModTime().UnixNano()
	}
	return segmentCacheKey{path: path, term: term, modTime: modNS}
}

func (c *segmentCache) get(key segmentCacheKey) (map[int][]int, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

func (c *segmentCache) add(key segmentCacheKey, postings map[int][]int) {
	if c.cache == nil {
		return
	}
	c.cache.Add(key, postings)
}
