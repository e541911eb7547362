package query

import (
	"fmt"

	"github.com/cuemby/faktum/pkg/codec"
	"github.com/cuemby/faktum/pkg/relation"
	"github.com/cuemby/faktum/pkg/storage"
	"github.com/cuemby/faktum/pkg/transact"
	"github.com/cuemby/faktum/pkg/value"
)

// txEvalContext adapts a *transact.Transaction and its scratch store to
// relation.EvalContext, the only point where the relation algebra touches
// the triple store.
type txEvalContext struct {
	tx      *transact.Transaction
	scratch storage.Tx
}

func newTxEvalContext(tx *transact.Transaction, scratch storage.Tx) *txEvalContext {
	return &txEvalContext{tx: tx, scratch: scratch}
}

// ValuesForEntity scans the EAVT range fixed at (e, a) and decides
// liveness for every distinct value in the same style as scan_ae, but
// scoped to one already-known entity rather than walking the whole
// attribute.
func (c *txEvalContext) ValuesForEntity(e value.EntityId, a value.AttrId, vld value.Validity) ([]value.DataValue, error) {
	attr, err := c.tx.Catalog().Lookup(a)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		return nil, fmt.Errorf("query: unknown attribute %s", a)
	}
	prefix := codec.EncodeEAVTPrefix(e, a)
	upper := prefixUpperBound(prefix)
	it, err := c.tx.Storage().Iterator(prefix, upper, true)
	if err != nil {
		return nil, fmt.Errorf("query: values_for_entity: %w", err)
	}
	defer it.Close()
	if !it.First() {
		return nil, nil
	}

	many := attr.Cardinality == value.CardinalityMany
	if !many {
		if !it.Seek(codec.EncodeEAVTKey(e, a, vld, value.DataValue{}, false)) {
			return nil, nil
		}
		parts, err := codec.DecodeEAVTKey(it.Key())
		if err != nil {
			return nil, err
		}
		if !parts.Validity.Before(vld) {
			return nil, nil
		}
		op, v, err := codec.DecodeRecord(it.Value(), parts.Value, false)
		if err != nil {
			return nil, err
		}
		if op == codec.OpRetract {
			return nil, nil
		}
		return []value.DataValue{v}, nil
	}

	var out []value.DataValue
	for it.Valid() {
		parts, err := codec.DecodeEAVTKey(it.Key())
		if err != nil {
			return nil, err
		}
		if !parts.Validity.Before(vld) {
			seekKey := codec.EncodeEAVTKey(e, a, vld, parts.Value, true)
			if !it.Seek(seekKey) {
				break
			}
			continue
		}
		op, val, err := codec.DecodeRecord(it.Value(), parts.Value, true)
		if err != nil {
			return nil, err
		}
		if op == codec.OpAssert {
			out = append(out, val)
		}
		valuePrefix := codec.EncodeEAVTValuePrefix(e, a, parts.Value)
		skip := prefixUpperBound(valuePrefix)
		if skip == nil || !it.Seek(skip) {
			break
		}
	}
	return out, nil
}

// EntitiesForValue prefers the AVET index when the attribute maintains
// one, falls back to VAET for entity-reference values, and otherwise
// falls back to a full scan_ae pass filtering by value — the only
// correct option left for a non-indexed attribute, per the index
// maintenance rule.
func (c *txEvalContext) EntitiesForValue(a value.AttrId, v value.DataValue, vld value.Validity) ([]value.EntityId, error) {
	attr, err := c.tx.Catalog().Lookup(a)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		return nil, fmt.Errorf("query: unknown attribute %s", a)
	}
	if attr.Indexed {
		return c.entitiesViaAVET(a, v, vld)
	}
	if attr.NeedsVAET() {
		return c.entitiesViaVAET(a, v, vld)
	}
	return c.entitiesViaScanFilter(a, v, vld)
}

func (c *txEvalContext) entitiesViaAVET(a value.AttrId, v value.DataValue, vld value.Validity) ([]value.EntityId, error) {
	prefix := codec.EncodeAVETValuePrefix(a, v)
	upper := prefixUpperBound(prefix)
	it, err := c.tx.Storage().Iterator(prefix, upper, true)
	if err != nil {
		return nil, fmt.Errorf("query: entities_for_value avet: %w", err)
	}
	defer it.Close()
	var out []value.EntityId
	if !it.First() {
		return out, nil
	}
	for it.Valid() {
		parts, err := codec.DecodeAVETKey(it.Key())
		if err != nil {
			return nil, err
		}
		entity := parts.Entity
		if !parts.Validity.Before(vld) {
			seekKey := codec.EncodeAVETKey(a, v, entity, vld)
			if !it.Seek(seekKey) {
				break
			}
			continue
		}
		op, _, err := codec.DecodeRecord(it.Value(), parts.Value, true)
		if err != nil {
			return nil, err
		}
		if op == codec.OpAssert {
			out = append(out, entity)
		}
		entityPrefix := codec.EncodeAVETEntityPrefix(a, v, entity)
		skip := prefixUpperBound(entityPrefix)
		if skip == nil || !it.Seek(skip) {
			break
		}
	}
	return out, nil
}

func (c *txEvalContext) entitiesViaVAET(a value.AttrId, v value.DataValue, vld value.Validity) ([]value.EntityId, error) {
	attrPrefix := codec.EncodeVAETAttrPrefix(v, a)
	upper := prefixUpperBound(attrPrefix)
	it, err := c.tx.Storage().Iterator(attrPrefix, upper, true)
	if err != nil {
		return nil, fmt.Errorf("query: entities_for_value vaet: %w", err)
	}
	defer it.Close()
	var out []value.EntityId
	if !it.First() {
		return out, nil
	}
	for it.Valid() {
		parts, err := codec.DecodeVAETKey(it.Key())
		if err != nil {
			return nil, err
		}
		entity := parts.Entity
		if !parts.Validity.Before(vld) {
			seekKey := codec.EncodeVAETKey(v, a, entity, vld)
			if !it.Seek(seekKey) {
				break
			}
			continue
		}
		op, _, err := codec.DecodeRecord(it.Value(), parts.Value, true)
		if err != nil {
			return nil, err
		}
		if op == codec.OpAssert {
			out = append(out, entity)
		}
		entityPrefix := codec.EncodeVAETEntityPrefix(v, a, entity)
		skip := prefixUpperBound(entityPrefix)
		if skip == nil || !it.Seek(skip) {
			break
		}
	}
	return out, nil
}

func (c *txEvalContext) entitiesViaScanFilter(a value.AttrId, v value.DataValue, vld value.Validity) ([]value.EntityId, error) {
	scanner, err := c.tx.ScanAE(a, vld)
	if err != nil {
		return nil, err
	}
	defer scanner.Close()
	var out []value.EntityId
	for {
		entry, ok, err := scanner.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if value.Equal(entry.Value, v) {
			out = append(out, entry.Entity)
		}
	}
	return out, nil
}

// HasValue answers a both-constant TripleScan as an existence check over
// ValuesForEntity's result, which is already bounded to one entity's
// live values.
func (c *txEvalContext) HasValue(e value.EntityId, a value.AttrId, v value.DataValue, vld value.Validity) (bool, error) {
	values, err := c.ValuesForEntity(e, a, vld)
	if err != nil {
		return false, err
	}
	for _, existing := range values {
		if value.Equal(existing, v) {
			return true, nil
		}
	}
	return false, nil
}

// ScanAllPairs backs the var/var TripleScan case with a full scan_ae pass.
func (c *txEvalContext) ScanAllPairs(a value.AttrId, vld value.Validity) ([]relation.Pair, error) {
	scanner, err := c.tx.ScanAE(a, vld)
	if err != nil {
		return nil, err
	}
	defer scanner.Close()
	var out []relation.Pair
	for {
		entry, ok, err := scanner.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, relation.Pair{Entity: entry.Entity, Value: entry.Value})
	}
	return out, nil
}

// ReadTable scans every row stored under table's prefix in the scratch
// store, in the store's natural key order.
func (c *txEvalContext) ReadTable(table storage.TempStoreId) ([]relation.Row, error) {
	prefix := storage.EncodeTablePrefix(table)
	upper := prefixUpperBound(prefix)
	it, err := c.scratch.Iterator(prefix, upper, true)
	if err != nil {
		return nil, fmt.Errorf("query: read_table: %w", err)
	}
	defer it.Close()
	var out []relation.Row
	for ok := it.First(); ok; ok = it.Next() {
		row, err := relation.DecodeRow(it.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// writeRows inserts rows into table's scratch partition, keyed by their
// content-addressed encoding so identical rows collapse to one entry.
func writeRows(scratch storage.Tx, table storage.TempStoreId, rows []relation.Row) (int, error) {
	added := 0
	for _, row := range rows {
		key := storage.EncodeTableKey(table, relation.EncodeRow(row))
		existing, err := scratch.Get(key)
		if err != nil {
			return added, fmt.Errorf("query: write_rows: %w", err)
		}
		if existing != nil {
			continue
		}
		if err := scratch.Put(key, relation.EncodeRow(row)); err != nil {
			return added, fmt.Errorf("query: write_rows: %w", err)
		}
		added++
	}
	return added, nil
}

func prefixUpperBound(prefix []byte) []byte {
	upper := append([]byte(nil), prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] != 0xFF {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}
