package node

import (
	"encoding/binary"
	"math/bits"

	hbits "github.com/SipengXie2024/authenticated-storage-benchmarks/bits"
)

// ExtractDenseKey extracts the node's discriminative bits from key and
// packs them low-order-first into a dense partial key, chunk by chunk:
// each 64-bit chunk of the key (loaded big-endian, so the key's first
// byte is the chunk's most significant byte) is PEXTed against the
// matching extraction mask, and the four results are concatenated with
// chunk 0 occupying the lowest result bits.
func (n *Node) ExtractDenseKey(key *[32]byte) uint32 {
	var dense uint32
	var offset uint
	for i := 0; i < 4; i++ {
		chunk := binary.BigEndian.Uint64(key[i*8 : i*8+8])
		part := hbits.Pext64(chunk, n.ExtractionMasks[i])
		dense |= uint32(part) << offset
		offset += uint(bits.OnesCount64(n.ExtractionMasks[i]))
	}
	return dense
}

// SearchSparse implements the node-level matching rule used by both
// lookup and insert: for each valid i, (denseKey & sparse[i]) == sparse[i]
// means sparse[i] is a subset of the key's probed bits; the LAST such i
// wins, because HOT stores entries in trie order and a more specific
// (longer) sparse key always sorts after the prefix it refines.
//
// This is named for the AVX2 "SIMD search" the reference implementation
// runs in memory (spec §4.B): broadcast-AND-compare-movemask over 32
// lanes. Go has no portable way to emit that without assembly this pack
// doesn't carry, and persistence I/O dwarfs the in-node search cost
// either way (the same tradeoff the reference project's own lib.rs
// documents for its RocksDB-backed variant), so this is a plain scalar
// scan — the fallback the spec requires to exist and agree bit-for-bit
// regardless of which path a hardware build would take.
func SearchSparse(sparseKeys *[32]uint32, validMask uint32, denseKey uint32) SearchResult {
	var matchMask uint32
	for i := 0; i < 32; i++ {
		if validMask&(uint32(1)<<uint(i)) == 0 {
			continue
		}
		if denseKey&sparseKeys[i] == sparseKeys[i] {
			matchMask |= uint32(1) << uint(i)
		}
	}
	matchMask &= validMask
	if matchMask == 0 {
		return SearchResult{Found: false, DenseKey: denseKey}
	}
	idx := 31 - bits.LeadingZeros32(matchMask)
	return SearchResult{Found: true, Index: idx, DenseKey: denseKey}
}

// Search computes key's dense partial key against this node and runs
// SearchSparse over the node's valid entries.
func (n *Node) Search(key *[32]byte) SearchResult {
	dense := n.ExtractDenseKey(key)
	return SearchSparse(&n.SparsePartialKeys, n.ValidMask(), dense)
}

// FindInsertPosition returns the index of the first entry whose sparse
// key is strictly greater (unsigned) than newKey, i.e. where newKey must
// be inserted to keep SparsePartialKeys ascending. Ties (an identical
// sparse key already present) insert after the existing entries sharing
// that value.
func (n *Node) FindInsertPosition(newKey uint32) int {
	l := n.Len()
	for i := 0; i < l; i++ {
		if n.SparsePartialKeys[i] > newKey {
			return i
		}
	}
	return l
}
