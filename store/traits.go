package store

import "github.com/SipengXie2024/authenticated-storage-benchmarks/node"

// NodeStore is the content-addressed persistence interface the tree
// driver mutates against. Implementations are expected to make
// PutNode/PutLeaf idempotent, since equal content always produces an
// equal node.ID.
type NodeStore interface {
	GetNode(id node.ID) (*node.Node, bool, error)
	PutNode(id node.ID, n *node.Node) error
	GetLeaf(id node.ID) (*node.LeafData, bool, error)
	PutLeaf(id node.ID, leaf *node.LeafData) error
	Flush() error
	ContainsNode(id node.ID) (bool, error)
	ContainsLeaf(id node.ID) (bool, error)
}

// Column distinguishes the two namespaces a Backend routes by.
type Column uint8

const (
	NodeColumn Column = iota
	LeafColumn
)

func (c Column) String() string {
	if c == LeafColumn {
		return "leaf"
	}
	return "node"
}

// Backend is the external key-value collaborator this package is built
// against (spec's "get(col, k) / put(col, k, v) / flush()"); it is out
// of this module's scope to implement generically, but every concrete
// NodeStore in this package is written against exactly this shape so a
// real backend (store/pebblestore, or any other) can be dropped in.
type Backend interface {
	Get(col Column, key [40]byte) ([]byte, bool, error)
	Put(col Column, key [40]byte, value []byte) error
	Flush() error
}
