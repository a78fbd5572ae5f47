package node

import (
	"encoding/binary"
	"fmt"
)

// idSize is the on-wire width of an ID: 1-byte tag + 8-byte big-endian
// version + 32-byte hash.
const idSize = 1 + 8 + 32

// EncodeID writes id's wire form: tag, then RawBytes (version||hash).
// Unlike RawBytes (a backend key within one column), the encoded form
// carries the tag so a decoded child can be routed back to its column.
func EncodeID(id ID) [idSize]byte {
	var out [idSize]byte
	out[0] = byte(id.Tag)
	raw := id.RawBytes()
	copy(out[1:], raw[:])
	return out
}

// DecodeID reads an ID from its wire form. Extra trailing bytes in b are
// ignored, matching the codec's trailing-bytes-tolerant contract.
func DecodeID(b []byte) (ID, error) {
	if len(b) < idSize {
		return ID{}, fmt.Errorf("node: DecodeID: need %d bytes, got %d", idSize, len(b))
	}
	id := ID{Tag: Tag(b[0]), Version: binary.BigEndian.Uint64(b[1:9])}
	copy(id.Hash[:], b[9:41])
	return id, nil
}

// Encode serializes n to its deterministic on-disk form (spec §6.2):
// height, the four extraction-mask words, all 32 sparse-key lanes
// (including the zero-initialized garbage tail past Len()), then a
// length-prefixed vector of child IDs. Every integer field is fixed-width
// little-endian, except the version inside each child ID, which EncodeID
// writes big-endian; two logically equal nodes always encode to identical
// bytes, since NodeId is defined as hash(Encode(node)).
func (n *Node) Encode() []byte {
	size := 1 + 4*8 + 32*4 + 4 + len(n.Children)*idSize
	out := make([]byte, size)
	off := 0

	out[off] = n.Height
	off++

	for _, m := range n.ExtractionMasks {
		binary.LittleEndian.PutUint64(out[off:], m)
		off += 8
	}

	for _, k := range n.SparsePartialKeys {
		binary.LittleEndian.PutUint32(out[off:], k)
		off += 4
	}

	binary.LittleEndian.PutUint32(out[off:], uint32(len(n.Children)))
	off += 4
	for _, c := range n.Children {
		enc := EncodeID(c)
		copy(out[off:], enc[:])
		off += idSize
	}

	return out
}

// Decode reconstructs a Node from bytes produced by Encode. Trailing
// bytes beyond the declared child count are ignored.
func Decode(b []byte) (Node, error) {
	const headerSize = 1 + 4*8 + 32*4 + 4
	if len(b) < headerSize {
		return Node{}, fmt.Errorf("node: Decode: need at least %d bytes, got %d", headerSize, len(b))
	}

	var n Node
	off := 0

	n.Height = b[off]
	off++

	for i := range n.ExtractionMasks {
		n.ExtractionMasks[i] = binary.LittleEndian.Uint64(b[off:])
		off += 8
	}

	for i := range n.SparsePartialKeys {
		n.SparsePartialKeys[i] = binary.LittleEndian.Uint32(b[off:])
		off += 4
	}

	count := binary.LittleEndian.Uint32(b[off:])
	off += 4

	need := off + int(count)*idSize
	if len(b) < need {
		return Node{}, fmt.Errorf("node: Decode: need %d bytes for %d children, got %d", need, count, len(b))
	}

	n.Children = make([]ID, count)
	for i := 0; i < int(count); i++ {
		id, err := DecodeID(b[off:])
		if err != nil {
			return Node{}, fmt.Errorf("node: Decode: child %d: %w", i, err)
		}
		n.Children[i] = id
		off += idSize
	}

	return n, nil
}

// Encode serializes a LeafData: the fixed 32-byte key, then the
// value as a length-prefixed byte vector.
func (l *LeafData) Encode() []byte {
	out := make([]byte, 32+4+len(l.Value))
	copy(out, l.Key[:])
	binary.LittleEndian.PutUint32(out[32:], uint32(len(l.Value)))
	copy(out[36:], l.Value)
	return out
}

// DecodeLeaf reconstructs a LeafData from bytes produced by Encode.
func DecodeLeaf(b []byte) (LeafData, error) {
	if len(b) < 36 {
		return LeafData{}, fmt.Errorf("node: DecodeLeaf: need at least 36 bytes, got %d", len(b))
	}
	var l LeafData
	copy(l.Key[:], b[:32])
	vlen := binary.LittleEndian.Uint32(b[32:36])
	need := 36 + int(vlen)
	if len(b) < need {
		return LeafData{}, fmt.Errorf("node: DecodeLeaf: need %d bytes, got %d", need, len(b))
	}
	l.Value = append([]byte(nil), b[36:need]...)
	return l, nil
}
