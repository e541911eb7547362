package relation

import (
	"fmt"

	"github.com/cuemby/faktum/pkg/codec"
	"github.com/cuemby/faktum/pkg/storage"
	"github.com/cuemby/faktum/pkg/value"
)

// Pair is one (entity, value) result of a full attribute scan, used by
// the var/var TripleScan case.
type Pair struct {
	Entity value.EntityId
	Value  value.DataValue
}

// EvalContext is the subset of the triple transaction and scratch store
// the relation algebra needs to turn a plan into rows. It is satisfied
// by an adapter over *transact.Transaction; relation stays free of a
// dependency on the transact package so a plan can be built, printed,
// and tested without one.
type EvalContext interface {
	// ValuesForEntity backs a TripleScan with a constant entity and a
	// free value binding.
	ValuesForEntity(e value.EntityId, a value.AttrId, vld value.Validity) ([]value.DataValue, error)

	// EntitiesForValue backs a TripleScan with a free entity binding
	// and a constant value.
	EntitiesForValue(a value.AttrId, v value.DataValue, vld value.Validity) ([]value.EntityId, error)

	// HasValue backs a TripleScan whose entity and value are both
	// constant: an existence check rather than a row producer.
	HasValue(e value.EntityId, a value.AttrId, v value.DataValue, vld value.Validity) (bool, error)

	// ScanAllPairs backs a TripleScan with both entity and value free.
	ScanAllPairs(a value.AttrId, vld value.Validity) ([]Pair, error)

	// ReadTable returns every row currently stored under a Derived
	// relation's scratch table, in the scratch store's natural key
	// order.
	ReadTable(table storage.TempStoreId) ([]Row, error)
}

// Rows evaluates r against ctx, producing its full row set. Plans are
// materialized eagerly rather than streamed: every intermediate
// relation in this engine is already bounded by a scratch table or a
// single triple-store scan, so an in-memory slice per node keeps the
// evaluator simple without sacrificing the bounds the magic-set rewrite
// is responsible for establishing.
func (r *Relation) Rows(ctx EvalContext) ([]Row, error) {
	switch r.Kind {
	case KindUnit:
		return []Row{{}}, nil
	case KindSingleton:
		return []Row{append(Row(nil), r.singletonRow...)}, nil
	case KindTripleScan:
		return r.tripleScanRows(ctx)
	case KindDerived:
		return ctx.ReadTable(r.derivedTable)
	case KindJoin:
		return r.joinRows(ctx)
	case KindCartesianJoin:
		return r.cartesianRows(ctx)
	case KindAntiJoin:
		return r.antiJoinRows(ctx)
	case KindReorder:
		return r.reorderRows(ctx)
	case KindFilter:
		return r.filterRows(ctx)
	default:
		return nil, fmt.Errorf("relation: unknown kind %d", r.Kind)
	}
}

func (r *Relation) tripleScanRows(ctx EvalContext) ([]Row, error) {
	switch {
	case r.scanEntityBind == "" && r.scanValueBind == "":
		ok, err := ctx.HasValue(*r.scanEntityConst, r.scanAttr, *r.scanValueConst, r.scanValidity)
		if err != nil {
			return nil, err
		}
		if ok {
			return []Row{{}}, nil
		}
		return nil, nil
	case r.scanEntityBind == "":
		values, err := ctx.ValuesForEntity(*r.scanEntityConst, r.scanAttr, r.scanValidity)
		if err != nil {
			return nil, err
		}
		rows := make([]Row, len(values))
		for i, v := range values {
			rows[i] = Row{v}
		}
		return rows, nil
	case r.scanValueBind == "":
		ents, err := ctx.EntitiesForValue(r.scanAttr, *r.scanValueConst, r.scanValidity)
		if err != nil {
			return nil, err
		}
		rows := make([]Row, len(ents))
		for i, e := range ents {
			rows[i] = Row{value.EntityRef(e)}
		}
		return rows, nil
	default:
		pairs, err := ctx.ScanAllPairs(r.scanAttr, r.scanValidity)
		if err != nil {
			return nil, err
		}
		rows := make([]Row, len(pairs))
		for i, p := range pairs {
			rows[i] = Row{value.EntityRef(p.Entity), p.Value}
		}
		return rows, nil
	}
}

// joinRows evaluates a Join. When the right child is a TripleScan bound
// by exactly one of this join's keys, it pushes the join down into a
// per-left-row triple store probe instead of materializing the right
// side, per §4.F's seek-then-scan strategy: this is what keeps a
// magic-restricted recursive rule at O(bound rows) rather than O(whole
// attribute).
func (r *Relation) joinRows(ctx EvalContext) ([]Row, error) {
	leftRows, err := r.left.Rows(ctx)
	if err != nil {
		return nil, err
	}
	if len(leftRows) == 0 {
		return nil, nil
	}

	if pushed, ok, err := r.pushDownTripleScan(ctx, leftRows); ok {
		return pushed, err
	}

	rightRows, err := r.right.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return hashJoin(leftRows, rightRows, r.left.bindings, r.right.bindings, r.leftKeys, r.rightKeys, r.bindings), nil
}

func (r *Relation) pushDownTripleScan(ctx EvalContext, leftRows []Row) ([]Row, bool, error) {
	ts := r.right
	if ts.Kind != KindTripleScan {
		return nil, false, nil
	}
	entityKeyPos, valuePos := -1, -1
	for i, rk := range r.rightKeys {
		switch rk {
		case ts.scanEntityBind:
			if ts.scanEntityBind != "" {
				entityKeyPos = i
			}
		case ts.scanValueBind:
			if ts.scanValueBind != "" {
				valuePos = i
			}
		}
	}

	switch {
	case entityKeyPos >= 0 && ts.scanValueBind != "" && valuePos < 0:
		li := indexOf(r.left.bindings, r.leftKeys[entityKeyPos])
		if li < 0 {
			return nil, false, nil
		}
		var out []Row
		for _, lr := range leftRows {
			ev := lr[li]
			if ev.Kind != value.KindEntityRef {
				continue
			}
			values, err := ctx.ValuesForEntity(ev.Entity, ts.scanAttr, ts.scanValidity)
			if err != nil {
				return nil, true, err
			}
			for _, v := range values {
				out = append(out, combineRow(lr, []value.DataValue{v}, r.left.bindings, []string{ts.scanValueBind}, r.bindings))
			}
		}
		return out, true, nil
	case valuePos >= 0 && ts.scanEntityBind != "" && entityKeyPos < 0:
		li := indexOf(r.left.bindings, r.leftKeys[valuePos])
		if li < 0 {
			return nil, false, nil
		}
		var out []Row
		for _, lr := range leftRows {
			vv := lr[li]
			ents, err := ctx.EntitiesForValue(ts.scanAttr, vv, ts.scanValidity)
			if err != nil {
				return nil, true, err
			}
			for _, e := range ents {
				out = append(out, combineRow(lr, []value.DataValue{value.EntityRef(e)}, r.left.bindings, []string{ts.scanEntityBind}, r.bindings))
			}
		}
		return out, true, nil
	default:
		return nil, false, nil
	}
}

// antiJoinRows evaluates an AntiJoin by materializing the right side into
// the same kind of hash index a Join uses, then keeping only left rows
// whose key has no entry in it.
func (r *Relation) antiJoinRows(ctx EvalContext) ([]Row, error) {
	leftRows, err := r.left.Rows(ctx)
	if err != nil {
		return nil, err
	}
	if len(leftRows) == 0 {
		return nil, nil
	}
	rightRows, err := r.right.Rows(ctx)
	if err != nil {
		return nil, err
	}
	rightKeyIdx := make([]int, len(r.rightKeys))
	for i, k := range r.rightKeys {
		rightKeyIdx[i] = indexOf(r.right.bindings, k)
	}
	leftKeyIdx := make([]int, len(r.leftKeys))
	for i, k := range r.leftKeys {
		leftKeyIdx[i] = indexOf(r.left.bindings, k)
	}
	present := make(map[string]bool, len(rightRows))
	for _, rr := range rightRows {
		present[joinKey(rr, rightKeyIdx)] = true
	}
	var out []Row
	for _, lr := range leftRows {
		if !present[joinKey(lr, leftKeyIdx)] {
			out = append(out, append(Row(nil), lr...))
		}
	}
	return out, nil
}

func (r *Relation) cartesianRows(ctx EvalContext) ([]Row, error) {
	leftRows, err := r.left.Rows(ctx)
	if err != nil {
		return nil, err
	}
	if len(leftRows) == 0 {
		return nil, nil
	}
	rightRows, err := r.right.Rows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Row, 0, len(leftRows)*len(rightRows))
	for _, lr := range leftRows {
		for _, rr := range rightRows {
			row := make(Row, 0, len(lr)+len(rr))
			row = append(row, lr...)
			row = append(row, rr...)
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *Relation) reorderRows(ctx EvalContext) ([]Row, error) {
	rows, err := r.inner.Rows(ctx)
	if err != nil {
		return nil, err
	}
	idxs := make([]int, len(r.newOrder))
	for i, name := range r.newOrder {
		idxs[i] = indexOf(r.inner.bindings, name)
	}
	out := make([]Row, len(rows))
	for i, row := range rows {
		nr := make(Row, len(idxs))
		for j, idx := range idxs {
			if idx >= 0 {
				nr[j] = row[idx]
			}
		}
		out[i] = nr
	}
	return out, nil
}

func (r *Relation) filterRows(ctx EvalContext) ([]Row, error) {
	rows, err := r.filterInner.Rows(ctx)
	if err != nil {
		return nil, err
	}
	var out []Row
	for _, row := range rows {
		ok, err := evalPredicate(r.predicate, row, r.filterInner.bindings)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func evalPredicate(p Predicate, row Row, bindings []string) (bool, error) {
	lv, err := resolveTerm(p.Left, row, bindings)
	if err != nil {
		return false, err
	}
	rv, err := resolveTerm(p.Right, row, bindings)
	if err != nil {
		return false, err
	}
	c := value.Compare(lv, rv)
	switch p.Op {
	case "=":
		return c == 0, nil
	case "!=":
		return c != 0, nil
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	case ">=":
		return c >= 0, nil
	default:
		return false, fmt.Errorf("relation: unknown predicate operator %q", p.Op)
	}
}

func resolveTerm(t value.Term, row Row, bindings []string) (value.DataValue, error) {
	if !t.IsVar {
		return t.Const, nil
	}
	idx := indexOf(bindings, t.Var)
	if idx < 0 {
		return value.DataValue{}, fmt.Errorf("relation: unbound variable %q in predicate", t.Var)
	}
	return row[idx], nil
}

// hashJoin materializes the right side into a hash index keyed on
// rightKeys, then probes it once per left row, per §4.F's join
// algorithm.
func hashJoin(leftRows, rightRows []Row, leftBindings, rightBindings, leftKeys, rightKeys, outBindings []string) []Row {
	rightKeyIdx := make([]int, len(rightKeys))
	for i, k := range rightKeys {
		rightKeyIdx[i] = indexOf(rightBindings, k)
	}
	leftKeyIdx := make([]int, len(leftKeys))
	for i, k := range leftKeys {
		leftKeyIdx[i] = indexOf(leftBindings, k)
	}

	index := make(map[string][]Row, len(rightRows))
	for _, rr := range rightRows {
		key := joinKey(rr, rightKeyIdx)
		index[key] = append(index[key], rr)
	}

	var out []Row
	for _, lr := range leftRows {
		key := joinKey(lr, leftKeyIdx)
		for _, rr := range index[key] {
			out = append(out, mergeJoinRow(lr, rr, leftBindings, rightBindings, outBindings))
		}
	}
	return out
}

func joinKey(row Row, idxs []int) string {
	var buf []byte
	for _, idx := range idxs {
		buf = append(buf, codec.EncodeValue(row[idx])...)
	}
	return string(buf)
}

func mergeJoinRow(lr, rr Row, leftBindings, rightBindings, outBindings []string) Row {
	row := make(Row, len(outBindings))
	for i, name := range outBindings {
		if idx := indexOf(leftBindings, name); idx >= 0 {
			row[i] = lr[idx]
			continue
		}
		if idx := indexOf(rightBindings, name); idx >= 0 {
			row[i] = rr[idx]
		}
	}
	return row
}

func combineRow(left Row, extra []value.DataValue, leftBindings, extraBindings, outBindings []string) Row {
	row := make(Row, len(outBindings))
	for i, name := range outBindings {
		if idx := indexOf(leftBindings, name); idx >= 0 {
			row[i] = left[idx]
			continue
		}
		if idx := indexOf(extraBindings, name); idx >= 0 {
			row[i] = extra[idx]
		}
	}
	return row
}

func indexOf(list []string, name string) int {
	for i, v := range list {
		if v == name {
			return i
		}
	}
	return -1
}

// EncodeRow produces a content-addressed byte encoding of row, used as
// the scratch store key for a Derived relation's rows: identical rows
// collide to the same key, giving the evaluator set semantics and the
// scratch store's natural key order as the row iteration order semi-naive
// evaluation's determinism requirement relies on.
func EncodeRow(row Row) []byte {
	var buf []byte
	for _, v := range row {
		buf = append(buf, codec.EncodeValue(v)...)
	}
	return buf
}

// DecodeRow reverses EncodeRow.
func DecodeRow(b []byte) (Row, error) {
	var row Row
	for len(b) > 0 {
		v, n, err := codec.DecodeValue(b)
		if err != nil {
			return nil, err
		}
		row = append(row, v)
		b = b[n:]
	}
	return row, nil
}
