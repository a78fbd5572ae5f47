package node

import "testing"

// buildKey returns a 32-byte key with only the given bit positions set.
func buildKey(bitsSet ...uint16) [32]byte {
	var k [32]byte
	for _, b := range bitsSet {
		k[b/8] |= 1 << (7 - b%8)
	}
	return k
}

func TestWithNewEntrySingleton(t *testing.T) {
	// Start from a single-leaf node (no discriminative bits) and add a
	// second entry that differs at bit 42.
	base := SingleLeaf(LeafID(0, [32]byte{1}))
	newChild := LeafID(0, [32]byte{2})

	out := base.WithNewEntry(42, true, 0, newChild)

	if out.Len() != 2 {
		t.Fatalf("expected 2 entries after WithNewEntry, got %d", out.Len())
	}
	if err := out.Validate(); err != nil {
		t.Fatalf("resulting node invalid: %v", err)
	}

	key1 := buildKey() // bit 42 = 0
	key2 := buildKey(42)

	res1 := out.Search(&key1)
	if !res1.Found || out.Children[res1.Index] != base.Children[0] {
		t.Fatalf("key with bit42=0 should route to original child, got %+v", res1)
	}
	res2 := out.Search(&key2)
	if !res2.Found || out.Children[res2.Index] != newChild {
		t.Fatalf("key with bit42=1 should route to new child, got %+v", res2)
	}
}

func TestWithNewEntryFromInfoMultiEntry(t *testing.T) {
	// Node with two entries sharing bit5=1 (prefix), discriminating
	// further on bit10: entries are (bit5=0), (bit5=1,bit10=0),
	// (bit5=1,bit10=1). PEXT packs bit10 (larger position) into
	// sparse-key bit0 and bit5 into sparse-key bit1, so that layout is
	// sparse keys 0b00, 0b10, 0b11. Insert a new entry within the
	// bit5=1 subtree at a new bit 7, with new bit value false (so it's
	// placed before the subtree, per spec: "new_bit_value=false" ->
	// insert before).
	n := Node{
		Height:            1,
		ExtractionMasks:   masksFromBits([]uint16{5, 10}),
		SparsePartialKeys: [32]uint32{0b00, 0b10, 0b11},
		Children: []ID{
			LeafID(0, [32]byte{0}),
			LeafID(0, [32]byte{1}),
			LeafID(0, [32]byte{2}),
		},
	}

	info := n.GetInsertInformation(1, 7, false) // bit5=1 subtree, spans idx1,idx2
	if info.NumberEntriesInAffectedSubtree != 2 {
		t.Fatalf("setup: expected 2-entry subtree, got %d", info.NumberEntriesInAffectedSubtree)
	}

	newChild := LeafID(0, [32]byte{9})
	out := n.WithNewEntryFromInfo(&info, newChild)

	if out.Len() != 4 {
		t.Fatalf("expected 4 entries, got %d", out.Len())
	}
	if err := out.Validate(); err != nil {
		t.Fatalf("resulting node invalid: %v", err)
	}

	// Both old entries in the affected subtree must now carry bit7=1
	// (opposite of the new entry's bit7=false), while the untouched
	// idx0 (bit5=0) is unaffected by bit7 entirely structurally -- it
	// simply doesn't probe bit7 differently since it was never part of
	// this subtree. We only assert the new entry is reachable and the
	// two old leaves remain reachable via their original keys extended
	// with bit5=1 and bit10 as before.
	key0 := buildKey() // bit5=0 -> should route to original first child
	res0 := out.Search(&key0)
	if !res0.Found || out.Children[res0.Index] != n.Children[0] {
		t.Fatalf("bit5=0 key should still route to original first child, got %+v", res0)
	}

	keyNew := buildKey(5) // bit5=1, bit7=0 (the new entry's value), bit10=0
	resNew := out.Search(&keyNew)
	if !resNew.Found || out.Children[resNew.Index] != newChild {
		t.Fatalf("new entry not reachable at its own key, got %+v", resNew)
	}

	keyOld1 := buildKey(5, 7) // bit5=1, bit7=1 (old side), bit10=0
	resOld1 := out.Search(&keyOld1)
	if !resOld1.Found || out.Children[resOld1.Index] != n.Children[1] {
		t.Fatalf("old entry 1 not reachable via bit7=1, got %+v", resOld1)
	}

	keyOld2 := buildKey(5, 7, 10) // bit5=1, bit7=1, bit10=1
	resOld2 := out.Search(&keyOld2)
	if !resOld2.Found || out.Children[resOld2.Index] != n.Children[2] {
		t.Fatalf("old entry 2 not reachable via bit7=1,bit10=1, got %+v", resOld2)
	}
}
