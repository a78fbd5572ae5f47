// Package node implements the HOT compound node: its bitmask-driven
// partial-key encoding, the copy-on-write operations that derive new
// nodes from old ones (search, insert, split, integrate), and the
// deterministic on-disk codec.
//
// Grounded on _examples/original_source/asb-authdb/persistent-hot/src/node/*.rs
// and, for the sparse-array/bitset shape, gaissmai-bart's
// internal/sparse.Array256 and internal/bitset.BitSet256.
package node

import (
	"encoding/binary"
)

// Tag distinguishes the two NodeId namespaces: internal nodes live in one
// backend column, leaves in another. The tag never affects hashing or
// comparison of the 40 raw bytes, only routing.
type Tag uint8

const (
	TagInternal Tag = 0
	TagLeaf     Tag = 1
)

func (t Tag) String() string {
	if t == TagLeaf {
		return "leaf"
	}
	return "internal"
}

// ID is the 40-byte content-addressed identifier of a stored node or leaf:
// an 8-byte big-endian version prefix followed by a 32-byte content hash,
// tagged so callers (and the node store) know which column to look in.
// Big-endian keeps a raw-key-prefix scan over a column version-ordered,
// per spec's epoch-isolation property.
type ID struct {
	Tag     Tag
	Version uint64
	Hash    [32]byte
}

// MaxFanout is the maximum number of children (and discriminative bits) a
// node may hold; it is also the width of the sparse partial key, so both
// bounds are the same constant.
const MaxFanout = 32

// LeafID builds a leaf-tagged ID.
func LeafID(version uint64, hash [32]byte) ID {
	return ID{Tag: TagLeaf, Version: version, Hash: hash}
}

// InternalID builds an internal-tagged ID.
func InternalID(version uint64, hash [32]byte) ID {
	return ID{Tag: TagInternal, Version: version, Hash: hash}
}

// IsLeaf reports whether id refers to leaf data.
func (id ID) IsLeaf() bool { return id.Tag == TagLeaf }

// IsInternal reports whether id refers to an internal node.
func (id ID) IsInternal() bool { return id.Tag == TagInternal }

// RawBytes returns the 40-byte version||hash payload used as the backend
// key within a column. The tag is not part of it: tag selects the column.
func (id ID) RawBytes() (out [40]byte) {
	binary.BigEndian.PutUint64(out[:8], id.Version)
	copy(out[8:], id.Hash[:])
	return out
}

// LeafData is (key, value) content stored separately from internal nodes
// so node size stays bounded.
type LeafData struct {
	Key   [32]byte
	Value []byte
}

// BiNode is the transient two-entry descriptor produced by a split or by
// leaf pushdown, awaiting integration into some ancestor. Height is the
// height the *materialized* two-entry node would have (max(child
// heights)+1), not the max child height itself — see spec's resolved
// Open Question on BiNode.height semantics; every comparison against an
// ancestor's height depends on this definition.
type BiNode struct {
	DiscriminativeBit uint16
	Left              ID
	Right             ID
	Height            uint8
}

// SearchResult is the outcome of searching a node for a key's dense
// partial key.
type SearchResult struct {
	Found    bool
	Index    int
	DenseKey uint32
}

// InsertInformation describes, for a prospective insertion whose affected
// entry is the entryIndex passed to GetInsertInformation and whose
// diff-bit against that entry is DiscriminativeBit, the contiguous range
// of existing entries that share the discriminating prefix and must be
// updated together.
type InsertInformation struct {
	SubtreePrefixPartialKey        uint32
	FirstIndexInAffectedSubtree    int
	NumberEntriesInAffectedSubtree int
	AffectedSubtreeMask            uint32
	DiscriminativeBit              uint16
	NewBitValue                    bool
}

// IsSingleEntry reports whether exactly one existing entry is affected,
// the condition that selects Leaf-Node-Pushdown / WithNewEntry over the
// multi-entry WithNewEntryFromInfo form.
func (info InsertInformation) IsSingleEntry() bool {
	return info.NumberEntriesInAffectedSubtree == 1
}
