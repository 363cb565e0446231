package docmerge

import (
	"crypto/sha256"
	"fmt"
	"sync"
)

// DefaultCacheCapacity bounds the in-process render cache.
const DefaultCacheCapacity = 50

// cacheSampleSize is how many leading template bytes feed the cache key hash.
const cacheSampleSize = 1024

// RenderCache stores rendered output keyed by template+record identity. The
// cache is process-lifetime state with no persistence guarantee.
type RenderCache interface {
	Get(key string) ([]byte, bool)
	Put(key string, output []byte)
}

// CacheKey fingerprints a render call: a hash of a leading sample of the
// template bytes plus the template name and record id.
func CacheKey(templateBytes []byte, templateName, recordID string) string {
	sample := templateBytes
	if len(sample) > cacheSampleSize {
		sample = sample[:cacheSampleSize]
	}
	sum := sha256.Sum256(sample)
	return fmt.Sprintf("%x:%s:%s", sum[:8], templateName, recordID)
}

// FIFOCache is a bounded in-process RenderCache. Insertion beyond the bound
// evicts the single oldest inserted entry; eviction follows insertion order,
// not access order.
type FIFOCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string][]byte
	order    []string
}

// NewFIFOCache creates a cache holding at most capacity entries. A
// non-positive capacity selects DefaultCacheCapacity.
func NewFIFOCache(capacity int) *FIFOCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &FIFOCache{
		capacity: capacity,
		entries:  make(map[string][]byte),
	}
}

func (c *FIFOCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	output, ok := c.entries[key]
	return output, ok
}

// Put inserts a rendered output. Zero-length outputs are never cached. Writing
// an existing key refreshes its value without changing its eviction position.
func (c *FIFOCache) Put(key string, output []byte) {
	if len(output) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = output
		return
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = output
	c.order = append(c.order, key)
}

// Len returns the current number of cached entries.
func (c *FIFOCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes every entry.
func (c *FIFOCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	c.order = nil
}
