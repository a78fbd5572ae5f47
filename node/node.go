package node

import "github.com/SipengXie2024/authenticated-storage-benchmarks/internal/bitset256"

// Node is the on-disk/in-memory representation of a HOT internal node.
//
// Invariants (spec §3):
//  1. len = len(Children) <= MaxFanout
//  2. span <= MaxFanout
//  3. Height >= 1
//  4. SparsePartialKeys[0:len] is sorted ascending; the tail is garbage.
//  5. every SparsePartialKeys[i] has no bits outside AllMaskBits()
//  6. for a search key's dense key D, the LAST i with (D&sparse[i])==sparse[i]
//     is the matching child (trie-order / last-match-wins semantics).
//  7. nodes are immutable once stored; mutation is allocate-new + put.
type Node struct {
	Height            uint8
	ExtractionMasks   bitset256.Set
	SparsePartialKeys [32]uint32
	Children          []ID
}

// Len is the number of valid entries, taken from len(Children).
func (n *Node) Len() int { return len(n.Children) }

// IsEmpty reports whether the node has no entries.
func (n *Node) IsEmpty() bool { return len(n.Children) == 0 }

// IsFull reports whether the node has reached MaxFanout entries.
func (n *Node) IsFull() bool { return len(n.Children) >= MaxFanout }

// ValidMask is the set of low-order bits corresponding to valid entries,
// used to mask tail garbage out of SparsePartialKeys before a SIMD-style
// compare.
func (n *Node) ValidMask() uint32 {
	l := n.Len()
	if l >= 32 {
		return ^uint32(0)
	}
	return (uint32(1) << uint(l)) - 1
}

// Span is the number of discriminative bits this node probes.
func (n *Node) Span() uint32 {
	return uint32(n.ExtractionMasks.PopCount())
}

// AllMaskBits is the set of low-order bits a fully-packed sparse key may
// legally use: (1<<span)-1.
func (n *Node) AllMaskBits() uint32 {
	span := n.Span()
	if span >= 32 {
		return ^uint32(0)
	}
	return (uint32(1) << span) - 1
}

// GetChild returns the child at index, panicking like a slice index would
// if out of range — callers are expected to have validated index via
// Search first.
func (n *Node) GetChild(index int) ID { return n.Children[index] }

// Empty builds a node with no entries at the given height, used as a
// scratch starting point by tests.
func Empty(height uint8) Node {
	return Node{Height: height}
}

// SingleLeaf builds a one-entry node wrapping a single leaf: no
// discriminative bits, sparse key 0, height 1.
func SingleLeaf(leafID ID) Node {
	return Node{
		Height:            1,
		SparsePartialKeys: [32]uint32{0},
		Children:          []ID{leafID},
	}
}

// TwoLeaves builds a two-entry node holding leafID1/leafID2, whose keys
// key1/key2 must differ. The single discriminative bit is their first
// differing bit; the bit=0 side is ordered first to keep sparse keys
// ascending.
func TwoLeaves(key1 *[32]byte, leafID1 ID, key2 *[32]byte, leafID2 ID) Node {
	diffBit, ok := FindFirstDifferingBit(key1, key2)
	if !ok {
		panic("node: TwoLeaves requires differing keys")
	}
	bit1 := ExtractBit(key1, diffBit)

	first, second := leafID1, leafID2
	if bit1 {
		first, second = leafID2, leafID1
	}

	n := Node{
		Height:          1,
		ExtractionMasks: masksFromBits([]uint16{diffBit}),
		Children:        []ID{first, second},
	}
	n.SparsePartialKeys[0] = 0
	n.SparsePartialKeys[1] = 1
	return n
}

// Clone returns a deep, independently mutable copy of n, the standard
// starting point for every copy-on-write operation below.
func (n *Node) Clone() Node {
	out := *n
	out.Children = append([]ID(nil), n.Children...)
	return out
}
