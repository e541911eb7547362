package transact

import (
	"fmt"

	"github.com/cuemby/faktum/pkg/codec"
	"github.com/cuemby/faktum/pkg/value"
)

// ReadValue returns a value visible for (e, a) as of vld. For a
// cardinality-one attribute this is unambiguous: it seeks EAVT directly
// to the decision point (e, a, vld) and returns the first assertion at
// or before vld, or reports absent if a retract sits there instead. A
// cardinality-many attribute has no single "the" value, so ReadValue
// judges every distinct value's own contiguous history in turn and
// returns the first one still live as of vld.
func (t *Transaction) ReadValue(e value.EntityId, a value.AttrId, vld value.Validity) (value.DataValue, bool, error) {
	e, err := t.ResolveEntity(e)
	if err != nil {
		return value.DataValue{}, false, err
	}
	attr, err := t.catalog.Lookup(a)
	if err != nil {
		return value.DataValue{}, false, err
	}
	if attr == nil {
		return value.DataValue{}, false, &SchemaError{Kind: UnknownAttribute, Keyword: a.String()}
	}
	many := attr.Cardinality == value.CardinalityMany

	prefix := codec.EncodeEAVTPrefix(e, a)
	upper := prefixUpperBound(prefix)
	it, err := t.tx.Iterator(prefix, upper, true)
	if err != nil {
		return value.DataValue{}, false, fmt.Errorf("transact: read_value: %w", err)
	}
	defer it.Close()

	if !many {
		seekKey := codec.EncodeEAVTKey(e, a, vld, value.DataValue{}, false)
		if !it.Seek(seekKey) {
			return value.DataValue{}, false, nil
		}
		if !it.Valid() {
			return value.DataValue{}, false, nil
		}
		parts, err := codec.DecodeEAVTKey(it.Key())
		if err != nil {
			return value.DataValue{}, false, err
		}
		if !parts.Validity.Before(vld) {
			return value.DataValue{}, false, nil
		}
		op, v, err := codec.DecodeRecord(it.Value(), parts.Value, false)
		if err != nil {
			return value.DataValue{}, false, err
		}
		if op == codec.OpRetract {
			return value.DataValue{}, false, nil
		}
		return v, true, nil
	}

	if !it.First() {
		return value.DataValue{}, false, nil
	}
	for it.Valid() {
		parts, err := codec.DecodeEAVTKey(it.Key())
		if err != nil {
			return value.DataValue{}, false, err
		}
		if !parts.Validity.Before(vld) {
			seekKey := codec.EncodeEAVTKey(e, a, vld, parts.Value, true)
			if !it.Seek(seekKey) {
				return value.DataValue{}, false, nil
			}
			continue
		}
		op, v, err := codec.DecodeRecord(it.Value(), parts.Value, true)
		if err != nil {
			return value.DataValue{}, false, err
		}
		if op == codec.OpAssert {
			return v, true, nil
		}
		valuePrefix := codec.EncodeEAVTValuePrefix(e, a, parts.Value)
		skip := prefixUpperBound(valuePrefix)
		if skip == nil || !it.Seek(skip) {
			return value.DataValue{}, false, nil
		}
	}
	return value.DataValue{}, false, nil
}

// ScanAE returns a scanner over every live (entity, value) pair of
// attribute a as of vld.
func (t *Transaction) ScanAE(a value.AttrId, vld value.Validity) (*AEScanner, error) {
	attr, err := t.catalog.Lookup(a)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		return nil, &SchemaError{Kind: UnknownAttribute, Keyword: a.String()}
	}
	return NewAEScanner(t.tx, a, vld, attr.Cardinality == value.CardinalityMany)
}

// EntityRow is one live attribute value belonging to an entity,
// produced by ScanEntitiesAt.
type EntityRow struct {
	Entity value.EntityId
	Attr   value.AttrId
	Value  value.DataValue
}

// ScanEntitiesAt walks the full EAVT range, amending and re-seeking past
// each (entity, attribute) group exactly as ReadValue and ScanAE do, to
// produce every entity's live attribute values as of vld. It grounds
// the original engine's entities_at, used by callers (such as the
// CLI's dump command) that want a whole-entity view rather than going
// through a query.
func (t *Transaction) ScanEntitiesAt(vld value.Validity) ([]EntityRow, error) {
	lower := []byte{byte(codec.TagTripleEAVT)}
	upper := prefixUpperBound(lower)
	it, err := t.tx.Iterator(lower, upper, true)
	if err != nil {
		return nil, fmt.Errorf("transact: scan_entities_at: %w", err)
	}
	defer it.Close()

	var rows []EntityRow
	if !it.First() {
		return rows, nil
	}
	for it.Valid() {
		parts, err := codec.DecodeEAVTKey(it.Key())
		if err != nil {
			return nil, err
		}
		attr, err := t.catalog.Lookup(parts.Attr)
		if err != nil {
			return nil, err
		}
		groupPrefix := codec.EncodeEAVTPrefix(parts.Entity, parts.Attr)
		withValue := attr != nil && attr.Cardinality == value.CardinalityMany

		if withValue {
			for it.Valid() {
				p, err := codec.DecodeEAVTKey(it.Key())
				if err != nil {
					return nil, err
				}
				if p.Entity != parts.Entity || p.Attr != parts.Attr {
					break
				}
				if !p.Validity.Before(vld) {
					seekKey := codec.EncodeEAVTKey(p.Entity, p.Attr, vld, p.Value, true)
					if !it.Seek(seekKey) {
						break
					}
					continue
				}
				op, v, err := codec.DecodeRecord(it.Value(), p.Value, true)
				if err != nil {
					return nil, err
				}
				if op == codec.OpAssert {
					rows = append(rows, EntityRow{Entity: parts.Entity, Attr: parts.Attr, Value: v})
				}
				valuePrefix := codec.EncodeEAVTValuePrefix(p.Entity, p.Attr, p.Value)
				valueSkip := prefixUpperBound(valuePrefix)
				if valueSkip == nil || !it.Seek(valueSkip) {
					break
				}
			}
		} else {
			for it.Valid() {
				p, err := codec.DecodeEAVTKey(it.Key())
				if err != nil {
					return nil, err
				}
				if p.Entity != parts.Entity || p.Attr != parts.Attr {
					break
				}
				if !p.Validity.Before(vld) {
					seekKey := codec.EncodeEAVTKey(p.Entity, p.Attr, vld, value.DataValue{}, false)
					if !it.Seek(seekKey) {
						break
					}
					continue
				}
				op, v, err := codec.DecodeRecord(it.Value(), p.Value, false)
				if err != nil {
					return nil, err
				}
				if op == codec.OpAssert {
					rows = append(rows, EntityRow{Entity: parts.Entity, Attr: parts.Attr, Value: v})
				}
				break
			}
		}
		skip := prefixUpperBound(groupPrefix)
		if skip == nil || !it.Seek(skip) {
			break
		}
	}
	return rows, nil
}
