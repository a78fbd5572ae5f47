package tree

import "github.com/SipengXie2024/authenticated-storage-benchmarks/store"

// Lookup recurses from the root, extracting each node's dense key and
// running SIMD-style search. On a Found internal match it descends;
// on a Found leaf match it fetches the leaf and verifies the full
// 32-byte key — sparse partial keys can false-positive, so this check
// is mandatory, not an optimization. NotFound at any level, or a key
// mismatch at the leaf, means the key isn't present.
func (t *Tree) Lookup(key [32]byte) ([]byte, bool, error) {
	if t.rootID == nil {
		return nil, false, nil
	}

	id := *t.rootID
	for {
		if id.IsLeaf() {
			leaf, ok, err := t.cache.GetLeaf(id)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				return nil, false, store.ErrNotFound
			}
			if leaf.Key != key {
				return nil, false, nil
			}
			return leaf.Value, true, nil
		}

		n, ok, err := t.cache.GetNode(id)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, store.ErrNotFound
		}

		res := n.Search(&key)
		if !res.Found {
			return nil, false, nil
		}
		id = n.GetChild(res.Index)
	}
}
