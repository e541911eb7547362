// Package relation implements the relational algebra the compiler
// targets and the evaluator runs: a small closed set of variants
// encoded as one tagged struct rather than an open interface hierarchy,
// so a plan is printable, serializable, and testable as plain data —
// exactly what an "explain" command needs to show.
package relation

import (
	"fmt"

	"github.com/cuemby/faktum/pkg/storage"
	"github.com/cuemby/faktum/pkg/value"
)

// Kind tags which variant a Relation holds.
type Kind int

const (
	KindUnit Kind = iota
	KindSingleton
	KindTripleScan
	KindDerived
	KindJoin
	KindCartesianJoin
	KindAntiJoin
	KindReorder
	KindFilter
)

// Row is one tuple of bound values, positionally aligned with a
// Relation's Bindings().
type Row []value.DataValue

// Predicate is a comparison applied by a Filter relation.
type Predicate struct {
	Op    string // "=", "!=", "<", "<=", ">", ">="
	Left  value.Term
	Right value.Term
}

// Relation is the tagged union described in package doc. Only the
// fields relevant to Kind are populated.
type Relation struct {
	Kind     Kind
	bindings []string

	// Singleton
	singletonRow Row

	// TripleScan
	scanAttr        value.AttrId
	scanValidity    value.Validity
	scanEntityBind  string // "" if entity position is a bound constant
	scanValueBind   string // "" if value position is a bound constant
	scanEntityConst *value.EntityId
	scanValueConst  *value.DataValue

	// Derived
	derivedTable storage.TempStoreId

	// Join / CartesianJoin
	left, right        *Relation
	leftKeys, rightKeys []string

	// Reorder
	inner    *Relation
	newOrder []string

	// Filter
	filterInner *Relation
	predicate   Predicate
}

// Bindings returns the ordered list of variable names this relation's
// rows are bound against.
func (r *Relation) Bindings() []string { return r.bindings }

// Unit constructs the one-empty-row relation, the identity element a
// freshly started rule body compilation begins from.
func Unit() *Relation {
	return &Relation{Kind: KindUnit, bindings: nil}
}

func (r *Relation) IsUnit() bool { return r.Kind == KindUnit }

// Singleton constructs a one-row relation of fixed constants.
func Singleton(bindings []string, row Row) *Relation {
	return &Relation{Kind: KindSingleton, bindings: bindings, singletonRow: row}
}

// TripleScanSpec describes one TripleScan relation's shape.
type TripleScanSpec struct {
	Attr         value.AttrId
	Validity     value.Validity
	EntityBind   string
	ValueBind    string
	EntityConst  *value.EntityId
	ValueConst   *value.DataValue
}

// NewTripleScan constructs a relation scanning the triple store for
// attr's visible (entity, value) pairs as of validity. Exactly one of
// EntityBind/EntityConst and one of ValueBind/ValueConst must be set.
func NewTripleScan(spec TripleScanSpec) *Relation {
	var bindings []string
	if spec.EntityBind != "" {
		bindings = append(bindings, spec.EntityBind)
	}
	if spec.ValueBind != "" {
		bindings = append(bindings, spec.ValueBind)
	}
	return &Relation{
		Kind:            KindTripleScan,
		bindings:        bindings,
		scanAttr:        spec.Attr,
		scanValidity:    spec.Validity,
		scanEntityBind:  spec.EntityBind,
		scanValueBind:   spec.ValueBind,
		scanEntityConst: spec.EntityConst,
		scanValueConst:  spec.ValueConst,
	}
}

// NewDerived constructs a relation reading a named scratch table,
// used for rule results and magic-set supplementary relations.
func NewDerived(bindings []string, table storage.TempStoreId) *Relation {
	return &Relation{Kind: KindDerived, bindings: bindings, derivedTable: table}
}

// DerivedTable returns the scratch table a Derived relation reads.
func (r *Relation) DerivedTable() (storage.TempStoreId, bool) {
	if r.Kind != KindDerived {
		return 0, false
	}
	return r.derivedTable, true
}

// Join constructs an equi-join: leftKeys and rightKeys are parallel
// lists of binding names on each side. The output bindings are
// left.Bindings() followed by right.Bindings() minus rightKeys.
func Join(left, right *Relation, leftKeys, rightKeys []string) (*Relation, error) {
	if len(leftKeys) != len(rightKeys) {
		return nil, fmt.Errorf("relation: join key lists differ in length (%d vs %d)", len(leftKeys), len(rightKeys))
	}
	rightKeySet := make(map[string]bool, len(rightKeys))
	for _, k := range rightKeys {
		rightKeySet[k] = true
	}
	bindings := append([]string(nil), left.bindings...)
	for _, b := range right.bindings {
		if !rightKeySet[b] {
			bindings = append(bindings, b)
		}
	}
	return &Relation{
		Kind: KindJoin, bindings: bindings,
		left: left, right: right, leftKeys: leftKeys, rightKeys: rightKeys,
	}, nil
}

// CartesianJoin constructs the unconditional cross product of left and
// right, concatenating their bindings.
func CartesianJoin(left, right *Relation) *Relation {
	bindings := append(append([]string(nil), left.bindings...), right.bindings...)
	return &Relation{Kind: KindCartesianJoin, bindings: bindings, left: left, right: right}
}

// AntiJoin constructs the negation of an equi-join: left's rows whose key
// columns match no row of right are kept, unchanged; right's columns never
// appear in the output. This is how a negated body atom (Negated on Atom)
// is compiled — negation contributes no new bindings, only a filter over
// rows already produced by the rest of the body.
func AntiJoin(left, right *Relation, leftKeys, rightKeys []string) (*Relation, error) {
	if len(leftKeys) != len(rightKeys) {
		return nil, fmt.Errorf("relation: anti-join key lists differ in length (%d vs %d)", len(leftKeys), len(rightKeys))
	}
	return &Relation{
		Kind: KindAntiJoin, bindings: append([]string(nil), left.bindings...),
		left: left, right: right, leftKeys: leftKeys, rightKeys: rightKeys,
	}, nil
}

// Reorder produces inner's rows with columns rearranged into newOrder.
// newOrder is usually a permutation of inner.Bindings(), but may also be
// a strict subset: dropping columns this way is how EliminateTempVars
// projects away a rule's internal variables before a result is
// materialized into a Derived relation.
func Reorder(inner *Relation, newOrder []string) *Relation {
	return &Relation{Kind: KindReorder, bindings: newOrder, inner: inner, newOrder: newOrder}
}

// EliminateTempVars projects r down to the bindings named in keep,
// preserving r's existing column order. It is applied to a rule body's
// compiled relation before the result is written to its Derived table,
// so only the head's variables survive into the next stratum.
func EliminateTempVars(r *Relation, keep map[string]bool) *Relation {
	var newOrder []string
	for _, b := range r.bindings {
		if keep[b] {
			newOrder = append(newOrder, b)
		}
	}
	return Reorder(r, newOrder)
}

// Filter wraps inner with a row predicate; it does not change bindings.
func Filter(inner *Relation, pred Predicate) *Relation {
	return &Relation{Kind: KindFilter, bindings: inner.bindings, filterInner: inner, predicate: pred}
}

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "Unit"
	case KindSingleton:
		return "Singleton"
	case KindTripleScan:
		return "TripleScan"
	case KindDerived:
		return "Derived"
	case KindJoin:
		return "Join"
	case KindCartesianJoin:
		return "CartesianJoin"
	case KindAntiJoin:
		return "AntiJoin"
	case KindReorder:
		return "Reorder"
	case KindFilter:
		return "Filter"
	default:
		return "Unknown"
	}
}

// Describe renders r's plan as an indented, human-readable tree: the
// "explain" surface §9 calls out as a reason the relation algebra is a
// closed tagged union of plain data rather than opaque closures — a
// plan this shallow to print would be awkward to get out of an
// interface-based design.
func (r *Relation) Describe(indent string) string {
	line := indent + r.Kind.String() + "(" + joinStrings(r.bindings) + ")"
	switch r.Kind {
	case KindTripleScan:
		line += fmt.Sprintf(" attr=%s", r.scanAttr)
	case KindDerived:
		line += fmt.Sprintf(" table=%d", r.derivedTable)
	case KindJoin, KindAntiJoin:
		line += fmt.Sprintf(" on %s=%s", joinStrings(r.leftKeys), joinStrings(r.rightKeys))
	case KindFilter:
		line += fmt.Sprintf(" where %s %s %s", r.predicate.Left, r.predicate.Op, r.predicate.Right)
	}
	child := indent + "  "
	switch r.Kind {
	case KindJoin, KindCartesianJoin, KindAntiJoin:
		return line + "\n" + r.left.Describe(child) + "\n" + r.right.Describe(child)
	case KindReorder:
		return line + "\n" + r.inner.Describe(child)
	case KindFilter:
		return line + "\n" + r.filterInner.Describe(child)
	default:
		return line
	}
}

func joinStrings(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
