package node

import "testing"

// fullNodeDiscriminating32 builds a full (32-entry) node that probes 5
// bits (covering all of 0..31 sparse-key space) so it is both full and
// splittable, with each child a distinct leaf.
func fullNodeDiscriminating32() Node {
	n := Node{
		Height:          1,
		ExtractionMasks: masksFromBits([]uint16{1, 2, 3, 4, 5}),
	}
	for i := 0; i < 32; i++ {
		n.SparsePartialKeys[i] = uint32(i)
		n.Children = append(n.Children, LeafID(0, [32]byte{byte(i)}))
	}
	return n
}

func TestSplitPartitionsByRootBit(t *testing.T) {
	n := fullNodeDiscriminating32()
	discBit, left, right := n.Split()

	wantBit, _ := n.FirstDiscriminativeBit()
	if discBit != wantBit {
		t.Fatalf("split axis = %d, want %d", discBit, wantBit)
	}

	// All five bits live in chunk 0, so PEXT ranks them by descending
	// key-bit position: bit1 (the smallest position, hence the first
	// discriminative bit and the split axis) ranks last -- it occupies
	// the sparse key's highest bit (mask 16) -- so left = sparse 0..15,
	// right = sparse 16..31.
	if left.Existing || right.Existing {
		t.Fatalf("16-entry partitions must be compressed nodes, not Existing refs")
	}
	if left.Node.Len() != 16 || right.Node.Len() != 16 {
		t.Fatalf("expected 16/16 split, got %d/%d", left.Node.Len(), right.Node.Len())
	}
	if err := left.Node.Validate(); err != nil {
		t.Fatalf("left partition invalid: %v", err)
	}
	if err := right.Node.Validate(); err != nil {
		t.Fatalf("right partition invalid: %v", err)
	}
	// The split-away bit must no longer appear in either partition's masks.
	if left.Node.ExtractionMasks.Test(discBit) || right.Node.ExtractionMasks.Test(discBit) {
		t.Fatalf("split bit %d must be removed from both partitions", discBit)
	}
}

func TestSplitSingleEntryPartitionReusesID(t *testing.T) {
	// Two entries only: split must produce two singleton (Existing)
	// partitions, each reusing the original child ID verbatim.
	idA := LeafID(0, [32]byte{0xA})
	idB := LeafID(0, [32]byte{0xB})
	n := Node{
		Height:            1,
		ExtractionMasks:   masksFromBits([]uint16{9}),
		SparsePartialKeys: [32]uint32{0, 1},
		Children:          []ID{idA, idB},
	}

	_, left, right := n.Split()
	if !left.Existing || left.ID != idA {
		t.Fatalf("left partition should reuse idA unchanged, got %+v", left)
	}
	if !right.Existing || right.ID != idB {
		t.Fatalf("right partition should reuse idB unchanged, got %+v", right)
	}
}

func TestToTwoEntryNodeShape(t *testing.T) {
	bi := BiNode{DiscriminativeBit: 17, Left: LeafID(0, [32]byte{1}), Right: LeafID(0, [32]byte{2}), Height: 3}
	n := bi.ToTwoEntryNode()
	if n.Height != 3 || n.Len() != 2 {
		t.Fatalf("ToTwoEntryNode shape wrong: %+v", n)
	}
	if n.SparsePartialKeys[0] != 0 || n.SparsePartialKeys[1] != 1 {
		t.Fatalf("ToTwoEntryNode sparse keys = %v, want [0,1]", n.SparsePartialKeys[:2])
	}
	bit, _ := n.FirstDiscriminativeBit()
	if bit != 17 {
		t.Fatalf("ToTwoEntryNode discriminative bit = %d, want 17", bit)
	}
	if err := n.Validate(); err != nil {
		t.Fatalf("ToTwoEntryNode result invalid: %v", err)
	}
}

func TestSplitWithInsertFlipsSiblingsInMultiEntrySubtree(t *testing.T) {
	// Four entries over bits {1, 5}: PEXT ranks bit5 (larger position)
	// into sparse bit0 and bit1 into sparse bit1, giving
	//   idx0 = 0b00 (bit1=0, bit5=0)
	//   idx1 = 0b01 (bit1=0, bit5=1)
	//   idx2 = 0b10 (bit1=1, bit5=0)
	//   idx3 = 0b11 (bit1=1, bit5=1)
	n := Node{
		Height:            1,
		ExtractionMasks:   masksFromBits([]uint16{1, 5}),
		SparsePartialKeys: [32]uint32{0b00, 0b01, 0b10, 0b11},
		Children: []ID{
			LeafID(0, [32]byte{0}),
			LeafID(0, [32]byte{1}),
			LeafID(0, [32]byte{2}),
			LeafID(0, [32]byte{3}),
		},
	}

	// Diff against idx0 at bit 3 (between bit1 and bit5): the affected
	// subtree is every entry sharing bit1=0, i.e. idx0 and idx1 -- the
	// entire left (rootMask=bit1) partition. NewBitValue=false means the
	// new entry takes bit3=0 and both existing siblings must flip to
	// bit3=1, or the new entry collides with whichever of idx0/idx1 PDEP
	// happened to leave at bit3=0.
	info := n.GetInsertInformation(0, 3, false)
	if info.NumberEntriesInAffectedSubtree != 2 || info.FirstIndexInAffectedSubtree != 0 {
		t.Fatalf("setup: expected affected subtree {idx0,idx1}, got first=%d count=%d", info.FirstIndexInAffectedSubtree, info.NumberEntriesInAffectedSubtree)
	}

	newChild := LeafID(0, [32]byte{9})
	_, left, right := n.SplitWithInsert(&info, newChild)

	if left.Existing || left.Node.Len() != 3 {
		t.Fatalf("left partition should be a freshly built 3-entry node, got %+v", left)
	}
	if right.Existing || right.Node.Len() != 2 {
		t.Fatalf("right partition should be the untouched 2-entry idx2/idx3 half, got %+v", right)
	}
	if err := left.Node.Validate(); err != nil {
		t.Fatalf("left partition invalid: %v", err)
	}

	seen := make(map[uint32]bool)
	for i := 0; i < left.Node.Len(); i++ {
		key := left.Node.SparsePartialKeys[i]
		if seen[key] {
			t.Fatalf("left partition has colliding sparse keys: %v", left.Node.SparsePartialKeys[:left.Node.Len()])
		}
		seen[key] = true
	}

	newChildFound := false
	for _, c := range left.Node.Children {
		if c == newChild {
			newChildFound = true
		}
	}
	if !newChildFound {
		t.Fatal("new child missing from left partition")
	}
}

func TestWithIntegratedBinodeNonFull(t *testing.T) {
	base := Node{
		Height:            1,
		ExtractionMasks:   masksFromBits([]uint16{5}),
		SparsePartialKeys: [32]uint32{0, 1},
		Children:          []ID{LeafID(0, [32]byte{1}), LeafID(0, [32]byte{2})},
	}
	bi := BiNode{DiscriminativeBit: 50, Left: LeafID(0, [32]byte{3}), Right: LeafID(0, [32]byte{4}), Height: 1}

	out := base.WithIntegratedBinode(0, &bi)
	if out.Len() != 3 {
		t.Fatalf("expected 3 entries after integration, got %d", out.Len())
	}
	if err := out.Validate(); err != nil {
		t.Fatalf("result invalid: %v", err)
	}
	if !out.ExtractionMasks.Test(50) {
		t.Fatal("integrated bit 50 must now be probed")
	}

	key0 := buildKey()     // bit5=0, bit50=0 -> bi.Left
	key50 := buildKey(50)  // bit5=0, bit50=1 -> bi.Right
	key5 := buildKey(5)    // bit5=1 -> original second child

	if res := out.Search(&key0); !res.Found || out.Children[res.Index] != bi.Left {
		t.Fatalf("key0 should route to bi.Left, got %+v", res)
	}
	if res := out.Search(&key50); !res.Found || out.Children[res.Index] != bi.Right {
		t.Fatalf("key50 should route to bi.Right, got %+v", res)
	}
	if res := out.Search(&key5); !res.Found || out.Children[res.Index] != base.Children[1] {
		t.Fatalf("key5 should route to base's original second child, got %+v", res)
	}
}
