// Package tree implements the HOT tree driver: the stack-based insert
// descent, overflow handling via BiNode propagation up to a new root,
// lookup, and the version/commit/flush-cache lifecycle built on top of
// package node and package store.
//
// Grounded on _examples/original_source/asb-authdb/persistent-hot/src/tree/*.rs.
package tree

import (
	"github.com/SipengXie2024/authenticated-storage-benchmarks/hash"
	"github.com/SipengXie2024/authenticated-storage-benchmarks/node"
	"github.com/SipengXie2024/authenticated-storage-benchmarks/store"
)

// Tree is a single HOT trie instance: a content-addressed root pointer
// over a write-back cached store, versioned by epoch.
type Tree struct {
	cache  *store.CachedNodeStore
	hasher hash.Hasher

	rootID  *node.ID
	version uint64
}

// New builds an empty tree over backend, wrapping it in a write-back
// cache (spec §4.E): every node touched during an epoch stays resident
// until FlushCache drains it to backend.
func New(backend store.NodeStore, hasher hash.Hasher) *Tree {
	return &Tree{cache: store.NewCachedNodeStore(backend), hasher: hasher}
}

// RootID returns the tree's current root, or ok=false for an empty tree.
func (t *Tree) RootID() (id node.ID, ok bool) {
	if t.rootID == nil {
		return node.ID{}, false
	}
	return *t.rootID, true
}

// Version is the tree's current version, embedded into every NodeId
// computed by subsequent operations.
func (t *Tree) Version() uint64 { return t.version }

// Commit advances the tree to a new version: version = epoch + 1, the
// permissive convention this tree settles on for the reference
// project's two competing commit-accounting schemes (strict
// epoch==version assertion vs. permissive version=epoch+1). Stricter
// bookkeeping is the caller's responsibility if epochs aren't monotonic.
func (t *Tree) Commit(epoch uint64) {
	t.version = epoch + 1
}

// CacheStats reports the write-back cache's hit/miss/flush counters.
func (t *Tree) CacheStats() store.CacheStats { return t.cache.Stats() }

// FlushCache drains every dirty cache entry to the backend. Independent
// of Commit: callable at any time, preserving correctness either way.
func (t *Tree) FlushCache() error { return t.cache.Flush() }
