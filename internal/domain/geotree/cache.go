package geotree

import "sync"

// Cache memoizes expensive derived artifacts of a GeoNode sub-tree (most
// notably CSG polygon/mesh conversions) keyed by the node's content-address
// Hash. Entries live as long as the Cache value itself; the evaluator does
// not create or consult a Cache, so its owner decides that lifetime. Safe
// for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[Hash]interface{}
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Hash]interface{})}
}

// Get returns the cached value for h, if present.
func (c *Cache) Get(h Hash) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[h]
	return v, ok
}

// Put stores value under h, overwriting any existing entry.
func (c *Cache) Put(h Hash, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[h] = value
}

// GetOrCompute returns the cached value for n's hash, computing and storing
// it via compute if absent. The lock is not held while compute runs, so
// concurrent callers racing on the same node may each call compute; the
// first value stored wins and every caller gets that value back.
func (c *Cache) GetOrCompute(n *GeoNode, compute func() (interface{}, error)) (interface{}, error) {
	c.mu.Lock()
	if v, ok := c.entries[n.hash]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err := compute()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[n.hash]; ok {
		return existing, nil
	}
	c.entries[n.hash] = v
	return v, nil
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
