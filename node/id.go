package node

import "github.com/SipengXie2024/authenticated-storage-benchmarks/hash"

// ComputeID derives n's content-addressed ID at version: the node is
// hashed in its canonical Encode() form, so equal nodes at the same
// version always produce equal IDs, and put is idempotent.
func ComputeID(n *Node, hasher hash.Hasher, version uint64) ID {
	return InternalID(version, hasher.Hash(n.Encode()))
}

// ComputeLeafID derives a leaf's content-addressed ID at version.
func ComputeLeafID(l *LeafData, hasher hash.Hasher, version uint64) ID {
	return LeafID(version, hasher.Hash(l.Encode()))
}
