package node

import (
	"math/bits"

	hbits "github.com/SipengXie2024/authenticated-storage-benchmarks/bits"
)

// SplitChild is the result of compressing one side of a split: either
// the original content survives untouched (a single entry needs no new
// wrapping node, so its existing ID is reused directly, matching the
// reference node model's "compressEntries returns the original child
// pointer for a singleton" optimization) or a freshly built multi-entry
// Node that the caller still needs to persist and assign an ID.
type SplitChild struct {
	Existing bool
	ID       ID
	Node     Node
}

// Split partitions n along its first (smallest) discriminative bit into
// two compressed child halves, returning the bit split on plus the left
// (bit=0) and right (bit=1) sides. Panics if n has no discriminative
// bit to split on (span 0), since a single-entry node can't be split.
func (n *Node) Split() (uint16, SplitChild, SplitChild) {
	discBit, ok := n.FirstDiscriminativeBit()
	if !ok {
		panic("node: cannot split a node with span 0")
	}
	rootMask := n.GetRootMask()

	var leftIdx, rightIdx []int
	for i := 0; i < n.Len(); i++ {
		if n.SparsePartialKeys[i]&rootMask == 0 {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	left := n.compressEntries(leftIdx, discBit)
	right := n.compressEntries(rightIdx, discBit)
	return discBit, left, right
}

// compressEntries builds the compressed child holding exactly the
// entries at indices, with removedBit dropped from the extraction masks
// and PEXTed out of every sparse key. A single surviving entry needs no
// new node at all: its existing ID is returned as-is (SplitChild.Existing),
// since wrapping one child in a trivial one-entry node would waste a
// store round trip for no structural benefit.
func (n *Node) compressEntries(indices []int, removedBit uint16) SplitChild {
	if len(indices) == 0 {
		panic("node: split should never produce an empty partition")
	}
	if len(indices) == 1 {
		return SplitChild{Existing: true, ID: n.Children[indices[0]]}
	}
	return SplitChild{Node: n.compressEntriesNode(indices, removedBit)}
}

// compressEntriesNode is compressEntries' body for the multi-entry case,
// factored out so SplitWithInsert can build the same compressed base
// node and then feed it straight into the existing insert machinery
// instead of duplicating the PEXT/height logic.
func (n *Node) compressEntriesNode(indices []int, removedBit uint16) Node {
	newMasks := n.ExtractionMasks
	newMasks.Clear(removedBit)

	rootSparseMask := n.GetMaskForBit(removedBit)
	allBits := n.AllMaskBits()
	compressionMask := allBits &^ rootSparseMask

	allLeaves := true
	for _, idx := range indices {
		if !n.Children[idx].IsLeaf() {
			allLeaves = false
			break
		}
	}
	height := n.Height
	if allLeaves {
		height = 1
	}

	out := Node{
		Height:          height,
		ExtractionMasks: newMasks,
		Children:        make([]ID, 0, len(indices)),
	}
	for newIdx, oldIdx := range indices {
		oldSparse := n.SparsePartialKeys[oldIdx]
		out.SparsePartialKeys[newIdx] = hbits.Pext32(oldSparse, compressionMask)
		out.Children = append(out.Children, n.Children[oldIdx])
	}
	return out
}

// SplitWithInsert fuses Split with a Normal Insert into whichever half
// receives the new entry, for the handle-overflow path where a full
// node must both split and accommodate one new child at once. info
// describes the insertion against n's own (pre-split) index space,
// exactly as produced by GetInsertInformation; it is remapped into the
// receiving partition's local, post-compression index space before
// being handed to WithNewEntryFromInfo, reusing that already-correct
// bit-flip/insert logic rather than duplicating it.
func (n *Node) SplitWithInsert(info *InsertInformation, newChild ID) (uint16, SplitChild, SplitChild) {
	discBit, ok := n.FirstDiscriminativeBit()
	if !ok {
		panic("node: cannot split a node with span 0")
	}
	rootMask := n.GetRootMask()

	var leftIdx, rightIdx []int
	for i := 0; i < n.Len(); i++ {
		if n.SparsePartialKeys[i]&rootMask == 0 {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	affectedFirst := info.FirstIndexInAffectedSubtree
	affectedGoesRight := n.SparsePartialKeys[affectedFirst]&rootMask != 0

	receiving, other := leftIdx, rightIdx
	if affectedGoesRight {
		receiving, other = rightIdx, leftIdx
	}

	base := n.compressEntriesNode(receiving, discBit)

	localPrefix := hbits.Pext32(info.SubtreePrefixPartialKey, n.AllMaskBits()&^n.GetMaskForBit(discBit))
	localFirst := 0
	for _, idx := range receiving {
		if idx >= affectedFirst {
			break
		}
		localFirst++
	}

	var localAffectedMask uint32
	for i := localFirst; i < localFirst+info.NumberEntriesInAffectedSubtree; i++ {
		localAffectedMask |= uint32(1) << uint(i)
	}

	localInfo := InsertInformation{
		SubtreePrefixPartialKey:        localPrefix,
		FirstIndexInAffectedSubtree:    localFirst,
		NumberEntriesInAffectedSubtree: info.NumberEntriesInAffectedSubtree,
		AffectedSubtreeMask:            localAffectedMask,
		DiscriminativeBit:              info.DiscriminativeBit,
		NewBitValue:                    info.NewBitValue,
	}
	receivingNode := base.WithNewEntryFromInfo(&localInfo, newChild)

	var left, right SplitChild
	if affectedGoesRight {
		left = n.compressEntries(other, discBit)
		right = SplitChild{Node: receivingNode}
	} else {
		left = SplitChild{Node: receivingNode}
		right = n.compressEntries(other, discBit)
	}
	return discBit, left, right
}

// WithIntegratedBinode is Parent Pull Up: it replaces the child at
// oldChildIndex with biNode.Left and inserts biNode.Right at the
// position that keeps sparse keys ascending, introducing
// biNode.DiscriminativeBit into the extraction masks (PDEP-rewriting
// existing sparse keys) if the node doesn't already probe that bit. The
// resulting node's height is max(n.Height, biNode.Height): under true
// Parent Pull Up conditions the two are already equal, but this stays
// correct if called when they aren't.
func (n *Node) WithIntegratedBinode(oldChildIndex int, biNode *BiNode) Node {
	out := n.Clone()
	newBit := biNode.DiscriminativeBit

	isNewBit := !out.ExtractionMasks.Test(newBit)

	var newBitMask uint32
	if isNewBit {
		out.ExtractionMasks.Set(newBit)
		newBitMask = out.GetMaskForBit(newBit)

		oldAllBits := n.AllMaskBits()
		depositMask := hbits.DepositMask(oldAllBits, newBitMask)
		for i := 0; i < out.Len(); i++ {
			out.SparsePartialKeys[i] = hbits.Pdep32(out.SparsePartialKeys[i], depositMask)
		}
	} else {
		newBitMask = out.GetMaskForBit(newBit)
	}

	oldSparse := out.SparsePartialKeys[oldChildIndex]
	leftSparse := oldSparse
	rightSparse := oldSparse | newBitMask

	out.SparsePartialKeys[oldChildIndex] = leftSparse
	out.Children[oldChildIndex] = biNode.Left

	insertPos := out.FindInsertPosition(rightSparse)
	shiftAndInsert(&out, insertPos, rightSparse, biNode.Right)

	if biNode.Height > out.Height {
		out.Height = biNode.Height
	}
	return out
}

// SplitWithBinode splits a full node while simultaneously integrating
// biNode in place of the child at childIndex, for the case where a
// Parent Pull Up target is itself full. It determines which half
// childIndex's entry falls into after the split and folds the
// integration into that half's compression pass so the result never
// exceeds MaxFanout entries in either child.
func (n *Node) SplitWithBinode(childIndex int, biNode *BiNode) (uint16, SplitChild, SplitChild) {
	discBit, ok := n.FirstDiscriminativeBit()
	if !ok {
		panic("node: cannot split a node with span 0")
	}
	rootMask := n.GetRootMask()

	oldSparse := n.SparsePartialKeys[childIndex]
	childGoesRight := oldSparse&rootMask != 0

	var leftIdx, rightIdx []int
	for i := 0; i < n.Len(); i++ {
		if n.SparsePartialKeys[i]&rootMask == 0 {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	var left, right SplitChild
	if childGoesRight {
		left = n.compressEntries(leftIdx, discBit)
		right = n.compressEntriesWithBinode(rightIdx, discBit, childIndex, biNode)
	} else {
		left = n.compressEntriesWithBinode(leftIdx, discBit, childIndex, biNode)
		right = n.compressEntries(rightIdx, discBit)
	}
	return discBit, left, right
}

// compressEntriesWithBinode is compressEntries with one entry (at
// childIndex, which must appear in indices) replaced by biNode.Left and
// biNode.Right, reusing the containing node's own extraction masks for
// any discriminative bit biNode.DiscriminativeBit contributes, rather
// than this partition's own compression mask — the bit is appended to
// this half's mask set directly since it did not exist in the source
// node's probe set at all.
func (n *Node) compressEntriesWithBinode(indices []int, removedBit uint16, childIndex int, biNode *BiNode) SplitChild {
	childPos := -1
	for pos, idx := range indices {
		if idx == childIndex {
			childPos = pos
			break
		}
	}
	if childPos < 0 {
		panic("node: childIndex must appear in indices")
	}

	newMasks := n.ExtractionMasks
	newMasks.Clear(removedBit)

	newBit := biNode.DiscriminativeBit
	isNewBit := !newMasks.Test(newBit)
	if isNewBit {
		newMasks.Set(newBit)
	}

	rootSparseMask := n.GetMaskForBit(removedBit)
	allBits := n.AllMaskBits()
	compressionMask := allBits &^ rootSparseMask

	height := n.Height
	if biNode.Height > height {
		height = biNode.Height
	}

	out := Node{
		Height:          height,
		ExtractionMasks: newMasks,
		Children:        make([]ID, 0, len(indices)+1),
	}
	newBitMask := out.GetMaskForBit(newBit)

	var depositMask uint32 = ^uint32(0)
	if isNewBit {
		// "all bits" here is the post-compression span, i.e. the
		// bit-count of compressionMask packed low, not compressionMask
		// itself (compressionMask's set bits aren't contiguous).
		allBitsAfterCompression := uint32(0)
		if n := bits.OnesCount32(compressionMask); n > 0 {
			allBitsAfterCompression = (uint32(1) << uint(n)) - 1
		}
		depositMask = hbits.DepositMask(allBitsAfterCompression, newBitMask)
	}

	reencode := func(oldIdx int) uint32 {
		compressed := hbits.Pext32(n.SparsePartialKeys[oldIdx], compressionMask)
		if isNewBit {
			return hbits.Pdep32(compressed, depositMask)
		}
		return compressed
	}

	newIdx := 0
	for pos, oldIdx := range indices {
		if pos != childPos {
			out.SparsePartialKeys[newIdx] = reencode(oldIdx)
			out.Children = append(out.Children, n.Children[oldIdx])
			newIdx++
			continue
		}

		leftSparse := reencode(oldIdx)
		rightSparse := leftSparse | newBitMask

		out.SparsePartialKeys[newIdx] = leftSparse
		out.Children = append(out.Children, biNode.Left)
		newIdx++

		rightInserted := false
		for _, remainingIdx := range indices[pos+1:] {
			remainingReencoded := reencode(remainingIdx)
			if !rightInserted && rightSparse < remainingReencoded {
				out.SparsePartialKeys[newIdx] = rightSparse
				out.Children = append(out.Children, biNode.Right)
				newIdx++
				rightInserted = true
			}
			out.SparsePartialKeys[newIdx] = remainingReencoded
			out.Children = append(out.Children, n.Children[remainingIdx])
			newIdx++
		}
		if !rightInserted {
			out.SparsePartialKeys[newIdx] = rightSparse
			out.Children = append(out.Children, biNode.Right)
			newIdx++
		}
		break
	}

	return SplitChild{Node: out}
}

// ToTwoEntryNode materializes a BiNode into an ordinary two-entry Node:
// Left at sparse key 0, Right at sparse key 1, probing exactly
// b.DiscriminativeBit, at b.Height. This is how a BiNode that can't be
// integrated into any ancestor (Intermediate Node Creation, or a new
// root) finally becomes a real, storable node.
func (b *BiNode) ToTwoEntryNode() Node {
	out := Node{
		Height:          b.Height,
		ExtractionMasks: masksFromBits([]uint16{b.DiscriminativeBit}),
		Children:        []ID{b.Left, b.Right},
	}
	out.SparsePartialKeys[0] = 0
	out.SparsePartialKeys[1] = 1
	return out
}
