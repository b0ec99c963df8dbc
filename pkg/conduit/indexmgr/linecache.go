package indexmgr

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/abaveja313/conduit/pkg/conduit/lineindex"
)

// lineCacheShards controls contention, not capacity: every path hashes to
// exactly one shard, so concurrent GetLineIndex calls for different files
// rarely block each other. Grounded on pkg/slotcache's striped-lock file
// registry in the teacher repo.
const lineCacheShards = 16

type lineCacheEntry struct {
	mtime int64
	idx   *lineindex.Index
}

type lineCacheShardEntry struct {
	mu sync.RWMutex
	m  map[string]lineCacheEntry
}

// lineIndexCache caches built LineIndex values keyed by (path, mtime).
// xxhash picks the shard; within a shard, lookup is a plain map read plus
// an mtime comparison, so a stale entry (same path, old mtime) is
// recognized as a miss without needing a second map level.
type lineIndexCache struct {
	shards [lineCacheShards]*lineCacheShardEntry
}

func newLineIndexCache() *lineIndexCache {
	c := &lineIndexCache{}
	for i := range c.shards {
		c.shards[i] = &lineCacheShardEntry{m: make(map[string]lineCacheEntry)}
	}

	return c
}

func (c *lineIndexCache) shardFor(path string) *lineCacheShardEntry {
	h := xxhash.Sum64String(path)

	return c.shards[h%lineCacheShards]
}

func (c *lineIndexCache) get(path string, mtime int64) (*lineindex.Index, bool) {
	shard := c.shardFor(path)

	shard.mu.RLock()
	defer shard.mu.RUnlock()

	e, ok := shard.m[path]
	if !ok || e.mtime != mtime {
		return nil, false
	}

	return e.idx, true
}

func (c *lineIndexCache) put(path string, mtime int64, idx *lineindex.Index) {
	shard := c.shardFor(path)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	shard.m[path] = lineCacheEntry{mtime: mtime, idx: idx}
}

// invalidateKey drops any cached entry for path regardless of mtime,
// covering in-place content edits that don't bump the recorded mtime.
func (c *lineIndexCache) invalidateKey(path string) {
	shard := c.shardFor(path)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	delete(shard.m, path)
}

// clear empties every shard. Called on PromoteStaged since cached entries
// keyed against the old active index's mtimes are no longer guaranteed
// reachable from the new active index's entries (a promote can drop or
// replace files wholesale via LoadFiles).
func (c *lineIndexCache) clear() {
	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.m = make(map[string]lineCacheEntry)
		shard.mu.Unlock()
	}
}
