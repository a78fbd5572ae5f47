package node

import "fmt"

// Validate runs the structural self-check spec's invariant list names
// for a single node in isolation (it cannot see the store, so it can't
// confirm children actually exist or that Internal heights are
// consistent with their stored subtrees — tree.Validate covers that).
func (n *Node) Validate() error {
	if n.Len() > MaxFanout {
		return fmt.Errorf("node: len %d exceeds MaxFanout %d", n.Len(), MaxFanout)
	}
	span := n.Span()
	if span > MaxFanout {
		return fmt.Errorf("node: span %d exceeds MaxFanout %d", span, MaxFanout)
	}
	if n.Height < 1 {
		return fmt.Errorf("node: height must be >= 1, got %d", n.Height)
	}

	allBits := n.AllMaskBits()
	var prev uint32
	for i := 0; i < n.Len(); i++ {
		key := n.SparsePartialKeys[i]
		if key&^allBits != 0 {
			return fmt.Errorf("node: sparse key %d at index %d has bits outside span (key=%#x, allBits=%#x)", key, i, key, allBits)
		}
		if i > 0 && key < prev {
			return fmt.Errorf("node: sparse keys not ascending at index %d (%#x < %#x)", i, key, prev)
		}
		prev = key
	}

	return nil
}
