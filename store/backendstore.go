package store

import "github.com/SipengXie2024/authenticated-storage-benchmarks/node"

// BackendStore is the generic NodeStore-over-Backend adapter: it knows
// nothing about the backend's storage medium, only how to route
// node.ID-keyed reads/writes through the two columns and how to
// encode/decode the node/leaf payloads.
type BackendStore struct {
	backend Backend
}

// NewBackendStore wraps any Backend as a NodeStore.
func NewBackendStore(backend Backend) *BackendStore {
	return &BackendStore{backend: backend}
}

func (s *BackendStore) GetNode(id node.ID) (*node.Node, bool, error) {
	raw, ok, err := s.backend.Get(NodeColumn, id.RawBytes())
	if err != nil {
		return nil, false, &StorageError{Err: err}
	}
	if !ok {
		return nil, false, nil
	}
	n, err := node.Decode(raw)
	if err != nil {
		return nil, false, &DeserializationError{Err: err}
	}
	return &n, true, nil
}

func (s *BackendStore) PutNode(id node.ID, n *node.Node) error {
	if err := s.backend.Put(NodeColumn, id.RawBytes(), n.Encode()); err != nil {
		return &StorageError{Err: err}
	}
	return nil
}

func (s *BackendStore) GetLeaf(id node.ID) (*node.LeafData, bool, error) {
	raw, ok, err := s.backend.Get(LeafColumn, id.RawBytes())
	if err != nil {
		return nil, false, &StorageError{Err: err}
	}
	if !ok {
		return nil, false, nil
	}
	leaf, err := node.DecodeLeaf(raw)
	if err != nil {
		return nil, false, &DeserializationError{Err: err}
	}
	return &leaf, true, nil
}

func (s *BackendStore) PutLeaf(id node.ID, leaf *node.LeafData) error {
	if err := s.backend.Put(LeafColumn, id.RawBytes(), leaf.Encode()); err != nil {
		return &StorageError{Err: err}
	}
	return nil
}

func (s *BackendStore) Flush() error {
	if err := s.backend.Flush(); err != nil {
		return &StorageError{Err: err}
	}
	return nil
}

func (s *BackendStore) ContainsNode(id node.ID) (bool, error) {
	_, ok, err := s.backend.Get(NodeColumn, id.RawBytes())
	if err != nil {
		return false, &StorageError{Err: err}
	}
	return ok, nil
}

func (s *BackendStore) ContainsLeaf(id node.ID) (bool, error) {
	_, ok, err := s.backend.Get(LeafColumn, id.RawBytes())
	if err != nil {
		return false, &StorageError{Err: err}
	}
	return ok, nil
}
