package transact

import "github.com/cuemby/faktum/pkg/value"

// TripleWrite is one requested assertion or retraction within a
// TxRequest. Entity is a permanent id, a negative tentative id
// (resolved to a permanent id during TxTriples), or zero to request a
// brand new entity. Validity, if zero, takes the transaction's
// validity.
type TripleWrite struct {
	Entity   value.EntityId
	Attr     string // attribute keyword
	Value    value.DataValue
	Validity value.Validity
}

// TripleOp is exactly one of Put or Retract.
type TripleOp struct {
	Put     *TripleWrite
	Retract *TripleWrite
}

// TxRequest is a write transaction's triple payload, corresponding to
// the external { tx: [...], comment? } shape.
type TxRequest struct {
	Ops     []TripleOp
	Comment string
}

// AttrOpKind distinguishes an attribute schema operation.
type AttrOpKind int

const (
	AttrInstall AttrOpKind = iota
	AttrRetractOp
)

// AttrOp is one requested attribute schema change.
type AttrOp struct {
	Kind AttrOpKind
	Attr value.Attribute // Name required for Install; Id required for Retract
	Id   value.AttrId
}

// AttrTxRequest is a schema transaction's payload, corresponding to the
// external { attrs: [...] } shape.
type AttrTxRequest struct {
	Ops []AttrOp
}
