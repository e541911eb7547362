// Package codec turns triples and catalog records into the byte strings
// stored in the ordered key-value engine, and back. Every encoding here
// is order-preserving and injective: lexicographic byte order over an
// encoded key must match the semantic order the storage adapter needs
// (EAVT, AEVT, AVET, VAET), because the concrete KV engine this core is
// built on (bbolt) compares keys byte-wise and offers no pluggable
// comparator hook.
package codec

// StorageTag is the leading byte of every key, disambiguating which
// logical keyspace the remainder of the key belongs to.
type StorageTag byte

const (
	TagTripleEAVT StorageTag = iota + 1
	TagTripleAEVT
	TagTripleAVET
	TagTripleVAET
	TagAttrById
	TagAttrByKeyword
	TagTxMeta
)

// Op tags the stored record as an assertion or a retraction tombstone.
type Op byte

const (
	OpAssert  Op = 1
	OpRetract Op = 2
)
