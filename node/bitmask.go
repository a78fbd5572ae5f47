package node

import "github.com/SipengXie2024/authenticated-storage-benchmarks/internal/bitset256"

// masksFromBits builds the four-word extraction mask from a list of
// key-bit positions (MSB-first numbering): each bit is set directly
// through bitset256.Set's own MSB-first convention, so no manual
// chunk/shift arithmetic is needed here.
func masksFromBits(bitsList []uint16) bitset256.Set {
	var masks bitset256.Set
	for _, b := range bitsList {
		masks.Set(b)
	}
	return masks
}

// DiscriminativeBits enumerates the node's probed key-bit positions,
// ascending.
func (n *Node) DiscriminativeBits() []uint16 {
	return n.ExtractionMasks.Bits()
}

// FirstDiscriminativeBit returns the smallest probed key-bit position,
// used as the split axis.
func (n *Node) FirstDiscriminativeBit() (uint16, bool) {
	return n.ExtractionMasks.FirstSet()
}

// GetMaskForBit returns the single sparse-key bit that represents key-bit
// bit, given the node's current extraction masks. Chunk 0's extracted
// bits occupy the lowest result positions (search.go's ExtractDenseKey
// concatenates chunk-by-chunk from offset 0 upward), but within a chunk
// PEXT packs the lowest-weight mask bit into result bit 0, which is the
// *largest* key-bit position in that chunk -- so the sparse-key position
// of bit b is bitset256.Set.PextRank, not a naive ascending-position rank.
func (n *Node) GetMaskForBit(bit uint16) uint32 {
	return uint32(1) << uint(n.ExtractionMasks.PextRank(bit))
}

// GetRootMask is the sparse-key mask bit corresponding to the node's
// first (smallest) discriminative bit — the split axis mask.
func (n *Node) GetRootMask() uint32 {
	bit, ok := n.FirstDiscriminativeBit()
	if !ok {
		return 0
	}
	return n.GetMaskForBit(bit)
}

// GetPrefixBitsMask ORs together the sparse-key masks of every
// discriminative bit strictly less than bit (natural, MSB-first key-bit
// order), i.e. the bits that a new entry must already share with
// entryIndex before they can differ at bit.
func (n *Node) GetPrefixBitsMask(bit uint16) uint32 {
	var mask uint32
	for _, b := range n.DiscriminativeBits() {
		if b >= bit {
			break
		}
		mask |= n.GetMaskForBit(b)
	}
	return mask
}

// GetInsertInformation computes, for a hypothetical insertion whose
// affected existing entry is entryIndex and whose diff-bit against that
// entry is discriminativeBit, the contiguous subtree range sharing the
// discriminating prefix (spec §4.D "Insert information").
func (n *Node) GetInsertInformation(entryIndex int, discriminativeBit uint16, newBitValue bool) InsertInformation {
	prefixMask := n.GetPrefixBitsMask(discriminativeBit)
	subtreePrefix := n.SparsePartialKeys[entryIndex] & prefixMask

	first := entryIndex
	for first > 0 && (n.SparsePartialKeys[first-1]&prefixMask) == subtreePrefix {
		first--
	}
	last := entryIndex
	for last+1 < n.Len() && (n.SparsePartialKeys[last+1]&prefixMask) == subtreePrefix {
		last++
	}
	count := last - first + 1

	var affectedMask uint32
	for i := first; i <= last; i++ {
		affectedMask |= uint32(1) << uint(i)
	}

	return InsertInformation{
		SubtreePrefixPartialKey:        subtreePrefix,
		FirstIndexInAffectedSubtree:    first,
		NumberEntriesInAffectedSubtree: count,
		AffectedSubtreeMask:            affectedMask,
		DiscriminativeBit:              discriminativeBit,
		NewBitValue:                    newBitValue,
	}
}
