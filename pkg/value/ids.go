// Package value defines the scalar and identifier types shared by every
// layer of the engine: entity ids, attribute ids, transaction ids,
// validity timestamps, and the tagged DataValue union stored in triples.
package value

import "fmt"

// EntityId identifies an entity. Positive values are permanent, assigned
// by the entity id allocator. Negative values are
// tentative: placeholders a caller uses within a single tx_triples
// payload to refer to an entity being created in the same transaction,
// resolved to a permanent id before the triples are written.
type EntityId int64

// IsTentative reports whether id has not yet been assigned a permanent
// value by the allocator.
func (id EntityId) IsTentative() bool {
	return id < 0
}

// IsPermanent reports whether id is a committed, allocator-assigned id.
func (id EntityId) IsPermanent() bool {
	return id > 0
}

func (id EntityId) String() string {
	if id.IsTentative() {
		return fmt.Sprintf("tmp(%d)", -int64(id))
	}
	return fmt.Sprintf("%d", int64(id))
}

// AttrId identifies an attribute registered in the catalog.
type AttrId int64

func (id AttrId) String() string {
	return fmt.Sprintf("a%d", int64(id))
}

// TxId identifies a write transaction. Ids are monotonically increasing,
// assigned by the allocator when a writable transaction begins.
type TxId int64

func (id TxId) String() string {
	return fmt.Sprintf("tx%d", int64(id))
}

// Validity is a signed, monotonically comparable timestamp marking the
// point in time a triple's assertion or retraction takes effect.
// Higher values are later. ValidityMax sorts first under the key codec's
// descending validity encoding, meaning it is found first by a
// read-as-of scan with no upper bound.
type Validity int64

const (
	// ValidityMin is the smallest representable validity, used as a
	// sentinel lower bound in range scans.
	ValidityMin Validity = -(1 << 62)

	// ValidityMax is the largest representable validity, used as the
	// default "no later than" bound for present-tense reads.
	ValidityMax Validity = (1 << 62) - 1
)

// Before reports whether v happened no later than other.
func (v Validity) Before(other Validity) bool {
	return v <= other
}
