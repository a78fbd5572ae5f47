package node

import hbits "github.com/SipengXie2024/authenticated-storage-benchmarks/bits"

// WithNewEntry returns a new node with one entry added, for the
// singleton-affected-subtree case (Leaf Node Pushdown's sibling path and
// the plain add-to-node-with-no-existing-match path): add newBit to the
// extraction masks if it isn't already probed (PDEP-rewriting every
// existing sparse key to make room), compute the new entry's sparse key
// from the affected entry's key patched with newBit, flip the affected
// entry's own bit if the new bit was freshly introduced and the new
// key's value there is 0 (the affected entry becomes "the other side"),
// then insert at the position that keeps sparse keys ascending.
func (n *Node) WithNewEntry(newBit uint16, newBitValue bool, affectedIndex int, child ID) Node {
	out := n.Clone()

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

	affectedSparse := out.SparsePartialKeys[affectedIndex]
	var newSparseKey uint32
	if newBitValue {
		newSparseKey = affectedSparse | newBitMask
	} else {
		newSparseKey = affectedSparse &^ newBitMask
	}

	if isNewBit && !newBitValue {
		out.SparsePartialKeys[affectedIndex] |= newBitMask
	}

	insertPos := out.FindInsertPosition(newSparseKey)
	shiftAndInsert(&out, insertPos, newSparseKey, child)
	return out
}

// WithNewEntryFromInfo is the multi-entry-subtree form used by Normal
// Insert: every entry in info.AffectedSubtreeMask — not just one — gets
// its new bit set to the opposite of info.NewBitValue, because those
// entries all share the discriminating prefix and must move together;
// the new entry's sparse key is rebuilt from
// info.SubtreePrefixPartialKey (rewritten through the deposit mask when
// the bit is new) instead of from a single affected entry's key.
func (n *Node) WithNewEntryFromInfo(info *InsertInformation, child ID) Node {
	out := n.Clone()

	newBit := info.DiscriminativeBit
	isNewBit := !out.ExtractionMasks.Test(newBit)

	var depositMask uint32
	var newBitMask uint32
	if isNewBit {
		out.ExtractionMasks.Set(newBit)
		newBitMask = out.GetMaskForBit(newBit)

		oldAllBits := n.AllMaskBits()
		depositMask = hbits.DepositMask(oldAllBits, newBitMask)
		for i := 0; i < out.Len(); i++ {
			out.SparsePartialKeys[i] = hbits.Pdep32(out.SparsePartialKeys[i], depositMask)
		}
	} else {
		newBitMask = out.GetMaskForBit(newBit)
	}

	for i := 0; i < out.Len(); i++ {
		if info.AffectedSubtreeMask&(uint32(1)<<uint(i)) == 0 {
			continue
		}
		if !info.NewBitValue {
			out.SparsePartialKeys[i] |= newBitMask
		}
		// info.NewBitValue == true: affected entries keep bit 0, already
		// true post-PDEP (or unaffected if the bit wasn't new).
	}

	basePrefix := info.SubtreePrefixPartialKey
	if isNewBit {
		basePrefix = hbits.Pdep32(basePrefix, depositMask)
	}
	var newSparseKey uint32
	if info.NewBitValue {
		newSparseKey = basePrefix | newBitMask
	} else {
		newSparseKey = basePrefix &^ newBitMask
	}

	insertPos := info.FirstIndexInAffectedSubtree
	if info.NewBitValue {
		insertPos += info.NumberEntriesInAffectedSubtree
	}
	shiftAndInsert(&out, insertPos, newSparseKey, child)
	return out
}

// shiftAndInsert makes room at insertPos in out.SparsePartialKeys (a
// fixed array, so the shift is manual) and inserts child into
// out.Children at the same position.
func shiftAndInsert(out *Node, insertPos int, sparseKey uint32, child ID) {
	oldLen := out.Len()
	for i := oldLen - 1; i >= insertPos; i-- {
		out.SparsePartialKeys[i+1] = out.SparsePartialKeys[i]
	}
	out.SparsePartialKeys[insertPos] = sparseKey

	out.Children = append(out.Children, ID{})
	copy(out.Children[insertPos+1:], out.Children[insertPos:])
	out.Children[insertPos] = child
}
