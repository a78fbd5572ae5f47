// Package hash provides the pluggable 32-byte digest used for node
// content addressing. Two implementations ship, matching
// _examples/original_source/asb-authdb/persistent-hot/src/hash.rs's
// speed-vs-Ethereum-compatibility tradeoff: Blake2bHasher stands in for
// that file's Blake3 choice (this retrieval pack carries no Blake3
// binding anywhere; golang.org/x/crypto/blake2b is the nearest fast
// modern hash the pack actually evidences, via go-ethereum's go.mod),
// and Keccak256Hasher reproduces its Ethereum-compatible choice exactly.
package hash

// Hasher computes a deterministic 32-byte digest of arbitrary input.
// Implementations must be pure functions of their input: same bytes in,
// same digest out, every time.
type Hasher interface {
	Hash(data []byte) [32]byte
	Name() string
}
