package store

import (
	"sync"

	"github.com/SipengXie2024/authenticated-storage-benchmarks/node"
)

// cacheState tags a cached value as Clean (read from the backend,
// nothing to write back) or Dirty (written this epoch, owed to the
// backend at the next Flush).
type cacheState struct {
	dirty bool
}

type nodeEntry struct {
	cacheState
	value node.Node
}

type leafEntry struct {
	cacheState
	value node.LeafData
}

// CacheStats accumulates hit/miss/flush counters across the lifetime of
// a CachedNodeStore (or since the last ResetStats).
type CacheStats struct {
	NodeHits      uint64
	NodeMisses    uint64
	LeafHits      uint64
	LeafMisses    uint64
	NodesFlushed  uint64
	LeavesFlushed uint64
}

// NodeHitRate is NodeHits / (NodeHits + NodeMisses), 0 if there were no
// lookups yet.
func (s CacheStats) NodeHitRate() float64 {
	total := s.NodeHits + s.NodeMisses
	if total == 0 {
		return 0
	}
	return float64(s.NodeHits) / float64(total)
}

// LeafHitRate is LeafHits / (LeafHits + LeafMisses), 0 if there were no
// lookups yet.
func (s CacheStats) LeafHitRate() float64 {
	total := s.LeafHits + s.LeafMisses
	if total == 0 {
		return 0
	}
	return float64(s.LeafHits) / float64(total)
}

// CachedNodeStore decorates any NodeStore with a write-back cache, in
// the style of an LVMT-style DBAccess layer: Get checks the cache
// first and falls through to the inner store on a miss (caching the
// result Clean); Put writes only to the cache, marked Dirty; Flush
// drains every Dirty entry to the inner store, then clears the cache
// entirely — clean entries are dropped too, so the next read refills
// from the backend rather than growing unbounded.
type CachedNodeStore struct {
	inner NodeStore

	mu    sync.RWMutex
	nodes map[node.ID]nodeEntry
	leafs map[node.ID]leafEntry

	statsMu sync.Mutex
	stats   CacheStats
}

// NewCachedNodeStore wraps inner with a write-back cache.
func NewCachedNodeStore(inner NodeStore) *CachedNodeStore {
	return &CachedNodeStore{
		inner: inner,
		nodes: make(map[node.ID]nodeEntry),
		leafs: make(map[node.ID]leafEntry),
	}
}

// Stats returns a snapshot of the cache's hit/miss/flush counters.
func (c *CachedNodeStore) Stats() CacheStats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// ResetStats zeroes the hit/miss/flush counters.
func (c *CachedNodeStore) ResetStats() {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.stats = CacheStats{}
}

// CachedNodeCount returns the number of internal nodes currently held
// in the cache (Clean + Dirty).
func (c *CachedNodeStore) CachedNodeCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.nodes)
}

// CachedLeafCount returns the number of leaves currently held in the
// cache (Clean + Dirty).
func (c *CachedNodeStore) CachedLeafCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.leafs)
}

// Inner returns the wrapped store.
func (c *CachedNodeStore) Inner() NodeStore { return c.inner }

func (c *CachedNodeStore) GetNode(id node.ID) (*node.Node, bool, error) {
	c.mu.RLock()
	if e, ok := c.nodes[id]; ok {
		c.mu.RUnlock()
		c.statsMu.Lock()
		c.stats.NodeHits++
		c.statsMu.Unlock()
		n := e.value.Clone()
		return &n, true, nil
	}
	c.mu.RUnlock()

	c.statsMu.Lock()
	c.stats.NodeMisses++
	c.statsMu.Unlock()

	n, ok, err := c.inner.GetNode(id)
	if err != nil || !ok {
		return nil, false, err
	}

	c.mu.Lock()
	c.nodes[id] = nodeEntry{value: *n}
	c.mu.Unlock()
	return n, true, nil
}

func (c *CachedNodeStore) PutNode(id node.ID, n *node.Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes[id] = nodeEntry{cacheState: cacheState{dirty: true}, value: n.Clone()}
	return nil
}

func (c *CachedNodeStore) GetLeaf(id node.ID) (*node.LeafData, bool, error) {
	c.mu.RLock()
	if e, ok := c.leafs[id]; ok {
		c.mu.RUnlock()
		c.statsMu.Lock()
		c.stats.LeafHits++
		c.statsMu.Unlock()
		v := e.value
		return &v, true, nil
	}
	c.mu.RUnlock()

	c.statsMu.Lock()
	c.stats.LeafMisses++
	c.statsMu.Unlock()

	leaf, ok, err := c.inner.GetLeaf(id)
	if err != nil || !ok {
		return nil, false, err
	}

	c.mu.Lock()
	c.leafs[id] = leafEntry{value: *leaf}
	c.mu.Unlock()
	return leaf, true, nil
}

func (c *CachedNodeStore) PutLeaf(id node.ID, leaf *node.LeafData) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leafs[id] = leafEntry{cacheState: cacheState{dirty: true}, value: *leaf}
	return nil
}

// Flush writes every Dirty node and leaf to the inner store, then
// clears the cache in its entirety (LVMT-style), so a subsequent read
// always refills from the now-authoritative backend.
func (c *CachedNodeStore) Flush() error {
	c.mu.Lock()
	dirtyNodes := make(map[node.ID]node.Node)
	for id, e := range c.nodes {
		if e.dirty {
			dirtyNodes[id] = e.value
		}
	}
	dirtyLeaves := make(map[node.ID]node.LeafData)
	for id, e := range c.leafs {
		if e.dirty {
			dirtyLeaves[id] = e.value
		}
	}
	c.mu.Unlock()

	for id, n := range dirtyNodes {
		n := n
		if err := c.inner.PutNode(id, &n); err != nil {
			return err
		}
	}
	for id, leaf := range dirtyLeaves {
		leaf := leaf
		if err := c.inner.PutLeaf(id, &leaf); err != nil {
			return err
		}
	}

	c.statsMu.Lock()
	c.stats.NodesFlushed += uint64(len(dirtyNodes))
	c.stats.LeavesFlushed += uint64(len(dirtyLeaves))
	c.statsMu.Unlock()

	c.mu.Lock()
	c.nodes = make(map[node.ID]nodeEntry)
	c.leafs = make(map[node.ID]leafEntry)
	c.mu.Unlock()

	return c.inner.Flush()
}

func (c *CachedNodeStore) ContainsNode(id node.ID) (bool, error) {
	c.mu.RLock()
	if _, ok := c.nodes[id]; ok {
		c.mu.RUnlock()
		return true, nil
	}
	c.mu.RUnlock()
	return c.inner.ContainsNode(id)
}

func (c *CachedNodeStore) ContainsLeaf(id node.ID) (bool, error) {
	c.mu.RLock()
	if _, ok := c.leafs[id]; ok {
		c.mu.RUnlock()
		return true, nil
	}
	c.mu.RUnlock()
	return c.inner.ContainsLeaf(id)
}
