package hash

import "golang.org/x/crypto/sha3"

// Keccak256Hasher is the Ethereum-compatible digest option, for
// deployments that want node IDs to compose with existing Ethereum
// tooling (H256-shaped hashes, Merkle-Patricia-adjacent pipelines).
type Keccak256Hasher struct{}

func (Keccak256Hasher) Hash(data []byte) [32]byte {
	var out [32]byte
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	h.Sum(out[:0])
	return out
}

func (Keccak256Hasher) Name() string { return "keccak256" }
