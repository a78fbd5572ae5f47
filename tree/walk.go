package tree

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/SipengXie2024/authenticated-storage-benchmarks/node"
	"github.com/SipengXie2024/authenticated-storage-benchmarks/store"
)

// Validate walks every node reachable from the current root and checks
// the structural invariants spec.md §3 and §8 name: each node's own
// len/span/sorted-sparse-key shape (node.Node.Validate), the height
// invariant height = 1 + max(child height), and that every child.ID a
// parent references is actually present in the store — the
// store.ErrNotFound condition spec §4.H calls "an internal invariant
// violation... indicates data corruption", which this walk is meant to
// catch offline before a Lookup or Insert trips over it.
//
// The trie is a DAG by content addressing (two equal subtrees share an
// ID), so the same node can legitimately be visited through more than
// one parent; what must never happen is visiting a node whose ID we
// have not yet assigned a local index to while its index is still
// being computed further down the same path, i.e. a true cycle. The
// visited set is sized as nodes are discovered rather than bounded up
// front (unlike node.Node's own fixed 256-bit bitset256.Set, this walk
// has no a-priori bound on tree size), which is exactly the case
// github.com/bits-and-blooms/bitset's auto-growing BitSet targets: each
// freshly discovered node.ID is assigned the next sequential index via
// a map, and that index's bit is set in the BitSet so repeat visits
// (shared subtrees, legitimate) stay O(1) instead of re-walking.
func (t *Tree) Validate() error {
	if t.rootID == nil {
		return nil
	}

	w := &validationWalk{
		tree:    t,
		visited: bitset.New(0),
		index:   make(map[node.ID]uint),
	}
	return w.walkNode(*t.rootID)
}

type validationWalk struct {
	tree    *Tree
	visited *bitset.BitSet
	index   map[node.ID]uint
	next    uint
}

func (w *validationWalk) indexOf(id node.ID) (idx uint, seen bool) {
	if idx, ok := w.index[id]; ok {
		return idx, true
	}
	idx = w.next
	w.next++
	w.index[id] = idx
	return idx, false
}

func (w *validationWalk) walkNode(id node.ID) error {
	if id.IsLeaf() {
		leaf, ok, err := w.tree.cache.GetLeaf(id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("tree: validate: %w: leaf %x", store.ErrNotFound, id.Hash)
		}
		_ = leaf
		return nil
	}

	idx, seen := w.indexOf(id)
	if seen && w.visited.Test(idx) {
		return nil
	}
	w.visited.Set(idx)

	n, ok, err := w.tree.cache.GetNode(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("tree: validate: %w: node %x", store.ErrNotFound, id.Hash)
	}

	if err := n.Validate(); err != nil {
		return fmt.Errorf("tree: validate: node %x: %w", id.Hash, err)
	}

	var maxChildHeight uint8
	for _, child := range n.Children {
		if err := w.walkNode(child); err != nil {
			return err
		}
		h, err := w.tree.childHeight(child)
		if err != nil {
			return err
		}
		if h > maxChildHeight {
			maxChildHeight = h
		}
	}

	if n.Height != maxChildHeight+1 {
		return fmt.Errorf("tree: validate: node %x: height %d != max child height %d + 1", id.Hash, n.Height, maxChildHeight)
	}

	return nil
}
