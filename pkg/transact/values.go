package transact

import (
	"fmt"

	"github.com/cuemby/faktum/pkg/codec"
	"github.com/cuemby/faktum/pkg/value"
)

// ValuesForEntity returns every value attribute a holds for entity e as
// of vld: at most one for a cardinality-one attribute, any number for
// cardinality-many. It backs TripleScan when the entity position is
// bound to a constant.
func (t *Transaction) ValuesForEntity(e value.EntityId, a value.AttrId, vld value.Validity) ([]value.DataValue, error) {
	attr, err := t.catalog.Lookup(a)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		return nil, &SchemaError{Kind: UnknownAttribute, Keyword: a.String()}
	}
	if attr.Cardinality == value.CardinalityOne {
		v, ok, err := t.ReadValue(e, a, vld)
		if err != nil || !ok {
			return nil, err
		}
		return []value.DataValue{v}, nil
	}

	prefix := codec.EncodeEAVTPrefix(e, a)
	upper := prefixUpperBound(prefix)
	it, err := t.tx.Iterator(prefix, upper, true)
	if err != nil {
		return nil, fmt.Errorf("transact: values_for_entity: %w", err)
	}
	defer it.Close()
	if !it.First() {
		return nil, nil
	}

	var result []value.DataValue
	for it.Valid() {
		p, err := codec.DecodeEAVTKey(it.Key())
		if err != nil {
			return nil, err
		}
		if !p.Validity.Before(vld) {
			seekKey := codec.EncodeEAVTKey(e, a, vld, p.Value, true)
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
			result = append(result, v)
		}
		valuePrefix := codec.EncodeEAVTValuePrefix(e, a, p.Value)
		skip := prefixUpperBound(valuePrefix)
		if skip == nil || !it.Seek(skip) {
			break
		}
	}
	return result, nil
}

// EntitiesForValue returns every entity that currently holds v for
// attribute a as of vld. It backs TripleScan when the value position is
// bound to a constant, using the AVET index when available and falling
// back to a full scan_ae otherwise.
func (t *Transaction) EntitiesForValue(a value.AttrId, v value.DataValue, vld value.Validity) ([]value.EntityId, error) {
	attr, err := t.catalog.Lookup(a)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		return nil, &SchemaError{Kind: UnknownAttribute, Keyword: a.String()}
	}
	if !attr.Indexed {
		scanner, err := NewAEScanner(t.tx, a, vld, attr.Cardinality == value.CardinalityMany)
		if err != nil {
			return nil, err
		}
		defer scanner.Close()
		var result []value.EntityId
		for {
			entry, ok, err := scanner.Next()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			if value.Equal(entry.Value, v) {
				result = append(result, entry.Entity)
			}
		}
		return result, nil
	}

	prefix := codec.EncodeAVETValuePrefix(a, v)
	upper := prefixUpperBound(prefix)
	it, err := t.tx.Iterator(prefix, upper, true)
	if err != nil {
		return nil, fmt.Errorf("transact: entities_for_value: %w", err)
	}
	defer it.Close()
	if !it.First() {
		return nil, nil
	}
	var result []value.EntityId
	for it.Valid() {
		p, err := codec.DecodeAVETKey(it.Key())
		if err != nil {
			return nil, err
		}
		entity := p.Entity
		if !p.Validity.Before(vld) {
			seekKey := codec.EncodeAVETKey(a, v, entity, vld)
			if !it.Seek(seekKey) {
				break
			}
			continue
		}
		op, _, err := codec.DecodeRecord(it.Value(), p.Value, true)
		if err != nil {
			return nil, err
		}
		if op == codec.OpAssert {
			result = append(result, entity)
		}
		entityPrefix := codec.EncodeAVETEntityPrefix(a, v, entity)
		skip := prefixUpperBound(entityPrefix)
		if skip == nil || !it.Seek(skip) {
			break
		}
	}
	return result, nil
}

// HasValue reports whether entity e currently holds v for attribute a
// as of vld.
func (t *Transaction) HasValue(e value.EntityId, a value.AttrId, v value.DataValue, vld value.Validity) (bool, error) {
	values, err := t.ValuesForEntity(e, a, vld)
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
