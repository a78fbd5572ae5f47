// Package pebblestore is a durable store.Backend over CockroachDB's
// Pebble, the persistent key-value engine this spec treats as an
// external collaborator (the "get(col,k)/put(col,k,v)/flush()"
// interface named in the spec's external-interfaces section). Node and
// leaf columns are kept in one Pebble instance and disambiguated with a
// one-byte column prefix, since Pebble itself has no column-family
// concept.
package pebblestore

import (
	"github.com/cockroachdb/pebble"

	"github.com/SipengXie2024/authenticated-storage-benchmarks/store"
)

// Backend is a store.Backend backed by a single Pebble database.
type Backend struct {
	db *pebble.DB
}

// Open opens (creating if absent) a Pebble database at dir.
func Open(dir string) (*Backend, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Backend{db: db}, nil
}

// Close releases the underlying Pebble handle.
func (b *Backend) Close() error { return b.db.Close() }

func prefixedKey(col store.Column, key [40]byte) []byte {
	out := make([]byte, 1+40)
	out[0] = byte(col)
	copy(out[1:], key[:])
	return out
}

func (b *Backend) Get(col store.Column, key [40]byte) ([]byte, bool, error) {
	v, closer, err := b.db.Get(prefixedKey(col, key))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (b *Backend) Put(col store.Column, key [40]byte, value []byte) error {
	return b.db.Set(prefixedKey(col, key), value, pebble.NoSync)
}

// Flush forces Pebble's memtable to disk, matching the write-back
// cache's own Flush semantics one level down.
func (b *Backend) Flush() error {
	return b.db.Flush()
}
