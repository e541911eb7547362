package transact

import (
	"sync/atomic"

	"github.com/cuemby/faktum/pkg/value"
)

// allocators holds the process-wide monotonic counters a Database
// shares with every Session cloned from it: the entity, attribute, and
// transaction id high-water marks, plus a count of NewSession calls
// that nothing else reads. Cloning a handle (NewSession) shares these
// pointers rather than copying their values, exactly as the original
// engine's Db::new_session does.
type allocators struct {
	lastEntityId atomic.Int64
	lastAttrId   atomic.Int64
	lastTxId     atomic.Int64
	sessionCount atomic.Uint32
}

func newAllocators() *allocators {
	return &allocators{}
}

// nextEntityId allocates the next permanent entity id.
func (a *allocators) nextEntityId() value.EntityId {
	return value.EntityId(a.lastEntityId.Add(1))
}

// nextAttrId allocates the next attribute id.
func (a *allocators) nextAttrId() value.AttrId {
	return value.AttrId(a.lastAttrId.Add(1))
}

// nextTxId allocates the next transaction id, used both as the
// transaction's identity and, absent an explicit validity, as the
// validity stamp of every triple it writes.
func (a *allocators) nextTxId() value.TxId {
	return value.TxId(a.lastTxId.Add(1))
}
