package hash

import "golang.org/x/crypto/blake2b"

// Blake2bHasher is the fast, non-Ethereum-compatible digest option.
type Blake2bHasher struct{}

func (Blake2bHasher) Hash(data []byte) [32]byte {
	return blake2b.Sum256(data)
}

func (Blake2bHasher) Name() string { return "blake2b-256" }
