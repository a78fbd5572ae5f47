package tree

import (
	"errors"
	"fmt"

	"github.com/SipengXie2024/authenticated-storage-benchmarks/node"
	"github.com/SipengXie2024/authenticated-storage-benchmarks/store"
)

// ErrCorrupt is returned when a node's own sparse-key invariant is
// violated at a point the HOT algorithm assumes it cannot be: every
// reachable node has an entry whose sparse key is the all-zero subset
// of every dense key, so findAffectedEntry always finds a match. A
// miss here means the on-disk structure was corrupted out of band.
var ErrCorrupt = errors.New("tree: invariant violated: no affected entry found")

// stackEntry is one frame of the descent path recorded by
// insertWithStack: the node itself (already fetched, so ancestors
// aren't re-read from the store during propagation) plus which of its
// children the path descended through.
type stackEntry struct {
	nodeID     node.ID
	node       node.Node
	childIndex int
}

// Insert stores value under key. The leaf is written unconditionally
// (content-addressed puts are idempotent); for an empty tree it
// becomes the sole entry of a fresh single-leaf root, otherwise the
// stack-based descent in insertWithStack runs.
func (t *Tree) Insert(key [32]byte, value []byte) error {
	version := t.version

	leaf := node.LeafData{Key: key, Value: append([]byte(nil), value...)}
	leafID := node.ComputeLeafID(&leaf, t.hasher, version)
	if err := t.cache.PutLeaf(leafID, &leaf); err != nil {
		return err
	}

	if t.rootID == nil {
		root := node.SingleLeaf(leafID)
		rootID := node.ComputeID(&root, t.hasher, version)
		if err := t.cache.PutNode(rootID, &root); err != nil {
			return err
		}
		t.rootID = &rootID
		return nil
	}

	return t.insertWithStack(key, leafID, version)
}

// insertWithStack is Phase 1 (descent and stack build) of spec §4.G.2:
// walk from root_id, growing stack with every ancestor frame passed
// through, until a terminal node is reached where one of Normal
// Insert, Leaf Node Pushdown, or a same-key replace applies.
func (t *Tree) insertWithStack(key [32]byte, leafID node.ID, version uint64) error {
	var stack []stackEntry
	currentID := *t.rootID

	for {
		n, ok, err := t.cache.GetNode(currentID)
		if err != nil {
			return err
		}
		if !ok {
			return store.ErrNotFound
		}

		res := n.Search(&key)

		if res.Found {
			childRef := n.GetChild(res.Index)
			affectedKey, err := t.representativeKey(childRef)
			if err != nil {
				return err
			}

			if affectedKey == key {
				if childRef.IsLeaf() {
					newNode := n.Clone()
					newNode.Children[res.Index] = leafID
					newID := node.ComputeID(&newNode, t.hasher, version)
					if err := t.cache.PutNode(newID, &newNode); err != nil {
						return err
					}
					return t.propagatePointerUpdates(stack, newID, version)
				}
				stack = append(stack, stackEntry{nodeID: currentID, node: *n, childIndex: res.Index})
				currentID = childRef
				continue
			}

			diffBit, ok := node.FindFirstDifferingBit(&affectedKey, &key)
			if !ok {
				return fmt.Errorf("tree: insert: expected %x and %x to differ", affectedKey, key)
			}
			newBitValue := node.ExtractBit(&key, diffBit)
			info := n.GetInsertInformation(res.Index, diffBit, newBitValue)

			switch {
			case info.IsSingleEntry() && childRef.IsLeaf():
				// Leaf Node Pushdown: build the BiNode the two leaves
				// would form and hand it to the same upward-integration
				// machinery overflow uses. Height 1 against n.Height
				// naturally selects Intermediate Node Creation when
				// n.Height > 1, or Parent Pull Up (possibly cascading)
				// when n.Height == 1 — both spec-named sub-cases fall
				// out of the one height comparison.
				bi := node.BiNode{DiscriminativeBit: diffBit, Height: 1}
				if newBitValue {
					bi.Left, bi.Right = childRef, leafID
				} else {
					bi.Left, bi.Right = leafID, childRef
				}
				stack = append(stack, stackEntry{nodeID: currentID, node: *n, childIndex: res.Index})
				_, err := t.integrateBinodeUpwards(stack, &bi, version)
				return err

			case info.IsSingleEntry():
				stack = append(stack, stackEntry{nodeID: currentID, node: *n, childIndex: res.Index})
				currentID = childRef
				continue

			default:
				return t.normalInsert(stack, currentID, n, &info, leafID, version)
			}
		}

		// NotFound: per spec §4.G.2, locate the unique affected entry
		// and proceed to Phase 2 as Normal Insert — the same
		// InsertInformation-driven machinery used for the Found
		// multi-entry case, which degenerates correctly to a
		// single-entry update when the affected subtree really is one
		// entry (the common case here).
		affectedIndex, ok := t.findAffectedEntry(n, res.DenseKey)
		if !ok {
			return fmt.Errorf("%w: node %x", ErrCorrupt, currentID.Hash)
		}
		affectedChild := n.GetChild(affectedIndex)
		affectedKey, err := t.representativeKey(affectedChild)
		if err != nil {
			return err
		}
		diffBit, ok := node.FindFirstDifferingBit(&affectedKey, &key)
		if !ok {
			return fmt.Errorf("tree: insert: expected %x and %x to differ", affectedKey, key)
		}
		newBitValue := node.ExtractBit(&key, diffBit)
		info := n.GetInsertInformation(affectedIndex, diffBit, newBitValue)
		return t.normalInsert(stack, currentID, n, &info, leafID, version)
	}
}

// normalInsert applies Phase 2's Normal Insert at n: a non-overflowing
// add finishes with pointer propagation up stack; an overflowing one
// hands off to handleOverflowNormalInsert, which finishes the
// operation itself (including, where needed, installing a new root).
func (t *Tree) normalInsert(stack []stackEntry, currentID node.ID, n *node.Node, info *node.InsertInformation, leafID node.ID, version uint64) error {
	if n.Len() < node.MaxFanout {
		newNode := n.WithNewEntryFromInfo(info, leafID)
		newID := node.ComputeID(&newNode, t.hasher, version)
		if err := t.cache.PutNode(newID, &newNode); err != nil {
			return err
		}
		return t.propagatePointerUpdates(stack, newID, version)
	}
	return t.handleOverflowNormalInsert(stack, currentID, n, info, leafID, version)
}

// handleOverflowNormalInsert is the overflow branch of Normal Insert
// (spec §4.G.2): split n while fusing in the new entry, then integrate
// the resulting BiNode upward. The special case mirrors the reference
// implementation: when the new discriminative bit sits at or above
// every bit n already probes, splitting n is pointless — n in its
// entirety becomes one side of the BiNode and the new leaf the other.
func (t *Tree) handleOverflowNormalInsert(stack []stackEntry, currentID node.ID, n *node.Node, info *node.InsertInformation, leafID node.ID, version uint64) error {
	firstBit, ok := n.FirstDiscriminativeBit()
	if !ok {
		return fmt.Errorf("tree: insert: overflowing node %x has span 0", currentID.Hash)
	}

	if info.DiscriminativeBit <= firstBit {
		left, right := currentID, leafID
		if !info.NewBitValue {
			left, right = leafID, currentID
		}
		bi := node.BiNode{DiscriminativeBit: info.DiscriminativeBit, Left: left, Right: right, Height: n.Height + 1}
		_, err := t.integrateBinodeUpwards(stack, &bi, version)
		return err
	}

	discBit, left, right := n.SplitWithInsert(info, leafID)
	leftID, leftHeight, err := t.materializeSplitChildWithHeight(left, version)
	if err != nil {
		return err
	}
	rightID, rightHeight, err := t.materializeSplitChildWithHeight(right, version)
	if err != nil {
		return err
	}

	maxHeight := leftHeight
	if rightHeight > maxHeight {
		maxHeight = rightHeight
	}
	bi := node.BiNode{DiscriminativeBit: discBit, Left: leftID, Right: rightID, Height: maxHeight + 1}
	_, err = t.integrateBinodeUpwards(stack, &bi, version)
	return err
}

// integrateBinodeUpwards is spec §4.G.4: pop ancestor frames leaf-to-
// root, at each one comparing bi.Height to the frame's own height.
// Equal heights is Parent Pull Up (splitting the parent too if it's
// full, which yields a new, taller BiNode and continues the loop);
// a strictly shorter BiNode is Intermediate Node Creation, which
// terminates the climb immediately since the parent's entry count
// never changes. An exhausted stack means bi becomes the new root.
func (t *Tree) integrateBinodeUpwards(stack []stackEntry, bi *node.BiNode, version uint64) (node.ID, error) {
	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		parent := entry.node

		if bi.Height == parent.Height {
			if parent.IsFull() {
				d, l, r := parent.SplitWithBinode(entry.childIndex, bi)
				lID, lHeight, err := t.materializeSplitChildWithHeight(l, version)
				if err != nil {
					return node.ID{}, err
				}
				rID, rHeight, err := t.materializeSplitChildWithHeight(r, version)
				if err != nil {
					return node.ID{}, err
				}
				maxHeight := lHeight
				if rHeight > maxHeight {
					maxHeight = rHeight
				}
				*bi = node.BiNode{DiscriminativeBit: d, Left: lID, Right: rID, Height: maxHeight + 1}
				continue
			}

			newParent := parent.WithIntegratedBinode(entry.childIndex, bi)
			if newParent.IsFull() {
				d, l, r := newParent.Split()
				lID, lHeight, err := t.materializeSplitChildWithHeight(l, version)
				if err != nil {
					return node.ID{}, err
				}
				rID, rHeight, err := t.materializeSplitChildWithHeight(r, version)
				if err != nil {
					return node.ID{}, err
				}
				maxHeight := lHeight
				if rHeight > maxHeight {
					maxHeight = rHeight
				}
				*bi = node.BiNode{DiscriminativeBit: d, Left: lID, Right: rID, Height: maxHeight + 1}
				continue
			}

			newParentID := node.ComputeID(&newParent, t.hasher, version)
			if err := t.cache.PutNode(newParentID, &newParent); err != nil {
				return node.ID{}, err
			}
			if err := t.propagatePointerUpdates(stack, newParentID, version); err != nil {
				return node.ID{}, err
			}
			return newParentID, nil
		}

		// Intermediate Node Creation.
		intermediate := bi.ToTwoEntryNode()
		intermediateID := node.ComputeID(&intermediate, t.hasher, version)
		if err := t.cache.PutNode(intermediateID, &intermediate); err != nil {
			return node.ID{}, err
		}

		newParent := parent.Clone()
		newParent.Children[entry.childIndex] = intermediateID
		if intermediate.Height+1 > newParent.Height {
			newParent.Height = intermediate.Height + 1
		}
		newParentID := node.ComputeID(&newParent, t.hasher, version)
		if err := t.cache.PutNode(newParentID, &newParent); err != nil {
			return node.ID{}, err
		}
		if err := t.propagatePointerUpdates(stack, newParentID, version); err != nil {
			return node.ID{}, err
		}
		return newParentID, nil
	}

	newRoot := bi.ToTwoEntryNode()
	newRootID := node.ComputeID(&newRoot, t.hasher, version)
	if err := t.cache.PutNode(newRootID, &newRoot); err != nil {
		return node.ID{}, err
	}
	t.rootID = &newRootID
	return newRootID, nil
}

// propagatePointerUpdates is spec §4.G.3: walk stack root-ward (pop
// order), rewriting each ancestor's child slot to point at the newest
// id and recomputing its height from the actual new child, until the
// stack is exhausted — the last id produced becomes the new root.
func (t *Tree) propagatePointerUpdates(stack []stackEntry, newChildID node.ID, version uint64) error {
	for i := len(stack) - 1; i >= 0; i-- {
		entry := stack[i]
		newNode := entry.node.Clone()
		newNode.Children[entry.childIndex] = newChildID

		childHeight, err := t.childHeight(newChildID)
		if err != nil {
			return err
		}
		if childHeight+1 > newNode.Height {
			newNode.Height = childHeight + 1
		}

		newID := node.ComputeID(&newNode, t.hasher, version)
		if err := t.cache.PutNode(newID, &newNode); err != nil {
			return err
		}
		newChildID = newID
	}

	t.rootID = &newChildID
	return nil
}

// representativeKey is spec §4.G.5: recurse children[0] until a leaf
// is reached and return its stored key. Any leaf within a subtree
// serves as a representative for diff-bit purposes, since every key in
// the subtree shares the prefix fixed by the discriminative bits above
// it.
func (t *Tree) representativeKey(id node.ID) ([32]byte, error) {
	for {
		if id.IsLeaf() {
			leaf, ok, err := t.cache.GetLeaf(id)
			if err != nil {
				return [32]byte{}, err
			}
			if !ok {
				return [32]byte{}, store.ErrNotFound
			}
			return leaf.Key, nil
		}

		n, ok, err := t.cache.GetNode(id)
		if err != nil {
			return [32]byte{}, err
		}
		if !ok {
			return [32]byte{}, store.ErrNotFound
		}
		if n.Len() == 0 {
			return [32]byte{}, fmt.Errorf("%w: empty node %x", ErrCorrupt, id.Hash)
		}
		id = n.GetChild(0)
	}
}

// findAffectedEntry is the NotFound-branch counterpart to Search: the
// last i (scanning from the end) with (dense & sparse[i]) == sparse[i].
// Every reachable, well-formed node carries an entry whose sparse key
// is the zero subset of any dense key, so this should never miss in
// practice — a miss here is the corruption signal ErrCorrupt exists
// for.
func (t *Tree) findAffectedEntry(n *node.Node, dense uint32) (int, bool) {
	for i := n.Len() - 1; i >= 0; i-- {
		sparse := n.SparsePartialKeys[i]
		if dense&sparse == sparse {
			return i, true
		}
	}
	return 0, false
}

// childHeight reports a child id's height for the purpose of
// recomputing an ancestor's own height: leaves count as height 0 via
// their tag (spec's height invariant), internal nodes report their
// stored Height.
func (t *Tree) childHeight(id node.ID) (uint8, error) {
	if id.IsLeaf() {
		return 0, nil
	}
	n, ok, err := t.cache.GetNode(id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, store.ErrNotFound
	}
	return n.Height, nil
}

// materializeSplitChildWithHeight persists a SplitChild produced by
// Split/SplitWithInsert/SplitWithBinode (unless it's an untouched
// Existing reference, which needs no write) and reports its height,
// needed to compute the enclosing BiNode's own height as max(left,
// right)+1.
func (t *Tree) materializeSplitChildWithHeight(sc node.SplitChild, version uint64) (node.ID, uint8, error) {
	if sc.Existing {
		h, err := t.childHeight(sc.ID)
		return sc.ID, h, err
	}
	id := node.ComputeID(&sc.Node, t.hasher, version)
	if err := t.cache.PutNode(id, &sc.Node); err != nil {
		return node.ID{}, 0, err
	}
	return id, sc.Node.Height, nil
}
