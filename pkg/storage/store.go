// Package storage adapts an ordered key-value engine to the contract
// the rest of the engine depends on: snapshot-isolated transactions,
// forward/reverse range iteration, and a second ephemeral store for
// relation algebra scratch tables. The concrete engine (bbolt) and its
// own comparator, compaction, and file format are treated as given; the
// key codec is what makes plain byte-wise comparison do the right thing.
package storage

// KV is an ordered key-value engine supporting snapshot-isolated
// transactions.
type KV interface {
	// Begin starts a transaction. A writable transaction blocks other
	// writers but not readers; a read-only transaction sees a
	// consistent snapshot as of the call.
	Begin(writable bool) (Tx, error)

	// Close releases the engine's resources. It must not be called
	// while any transaction is open.
	Close() error
}

// Tx is a single transaction over a KV engine.
type Tx interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error

	// Iterator returns a cursor ranging over [lower, upper). A nil
	// bound is unbounded in that direction. When forward is false the
	// iterator walks from the end of the range backward.
	Iterator(lower, upper []byte, forward bool) (Iterator, error)

	Commit() error
	Rollback() error
}

// Iterator walks an ordered range of key-value pairs. It must be
// positioned with Seek or First before Key/Value are valid, and must be
// closed when the caller is done with it; it does not outlive the
// transaction that produced it.
type Iterator interface {
	// First positions the iterator at the start of its range.
	First() bool

	// Seek positions the iterator at the first key >= target in the
	// iteration direction, respecting the iterator's bounds.
	Seek(target []byte) bool

	// Valid reports whether the iterator is positioned on an entry.
	Valid() bool

	// Next advances the iterator, reporting whether it is still valid.
	Next() bool

	Key() []byte
	Value() []byte
	Close() error
}
