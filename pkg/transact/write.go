package transact

import (
	"fmt"

	"github.com/cuemby/faktum/pkg/codec"
	"github.com/cuemby/faktum/pkg/value"
)

// TxTriples applies a batch of triple writes. Every tentative (negative)
// entity id is resolved to a freshly allocated permanent id the first
// time it is seen and reused for later references to the same id
// within this call; the resulting mapping is also merged into the
// transaction's ResolveEntity table. Uniqueness is checked per write for
// Unique attributes; cardinality is not checked here (a newer
// cardinality-one assertion shadows the older value through the key
// layout). The first violation stops the call with an error; writes the
// call already made stay in the transaction's uncommitted buffer.
func (t *Transaction) TxTriples(req TxRequest) (map[value.EntityId]value.EntityId, error) {
	if !t.writable {
		return nil, &InvariantError{Detail: "TxTriples called on a read-only transaction"}
	}
	localMap := make(map[value.EntityId]value.EntityId)
	for _, tripleOp := range req.Ops {
		w := tripleOp.Put
		isRetract := false
		if tripleOp.Retract != nil {
			w = tripleOp.Retract
			isRetract = true
		}
		if w == nil {
			return nil, &InvariantError{Detail: "triple op with neither put nor retract"}
		}

		entity, err := t.resolveOrAllocate(w.Entity, localMap)
		if err != nil {
			return nil, err
		}

		attr, err := t.catalog.LookupByKeyword(w.Attr)
		if err != nil {
			return nil, err
		}
		if attr == nil {
			return nil, &SchemaError{Kind: UnknownAttribute, Keyword: w.Attr}
		}

		vld := w.Validity
		if vld == 0 {
			vld = t.validity
		}

		storedOp := codec.OpAssert
		if isRetract {
			storedOp = codec.OpRetract
		} else if attr.Unique {
			if err := t.checkUnique(attr, w.Value, entity, vld); err != nil {
				return nil, err
			}
		}

		if err := t.writeTriple(entity, attr, w.Value, vld, storedOp); err != nil {
			return nil, err
		}
		if isRetract {
			t.triplesRetracted++
		} else {
			t.triplesWritten++
		}
	}
	for k, v := range localMap {
		t.tempToPerm[k] = v
	}
	return localMap, nil
}

func (t *Transaction) resolveOrAllocate(e value.EntityId, localMap map[value.EntityId]value.EntityId) (value.EntityId, error) {
	if e.IsPermanent() {
		return e, nil
	}
	if e == 0 {
		return t.db.alloc.nextEntityId(), nil
	}
	if perm, ok := localMap[e]; ok {
		return perm, nil
	}
	if perm, ok := t.tempToPerm[e]; ok {
		localMap[e] = perm
		return perm, nil
	}
	perm := t.db.alloc.nextEntityId()
	localMap[e] = perm
	return perm, nil
}

// writeTriple writes one triple under every index order the attribute
// requires: EAVT and AEVT unconditionally, AVET when Indexed, VAET when
// the attribute's value type is EntityRef.
func (t *Transaction) writeTriple(e value.EntityId, attr *value.Attribute, v value.DataValue, vld value.Validity, op codec.Op) error {
	many := attr.Cardinality == value.CardinalityMany

	eavtKey := codec.EncodeEAVTKey(e, attr.Id, vld, v, many)
	eavtRecord := codec.EncodeRecord(op, v, !many)
	if err := t.tx.Put(eavtKey, eavtRecord); err != nil {
		return fmt.Errorf("transact: write EAVT: %w", err)
	}

	aevtKey := codec.EncodeAEVTKey(attr.Id, e, vld, v, many)
	aevtRecord := codec.EncodeRecord(op, v, !many)
	if err := t.tx.Put(aevtKey, aevtRecord); err != nil {
		return fmt.Errorf("transact: write AEVT: %w", err)
	}

	if attr.Indexed {
		avetKey := codec.EncodeAVETKey(attr.Id, v, e, vld)
		avetRecord := codec.EncodeRecord(op, v, false)
		if err := t.tx.Put(avetKey, avetRecord); err != nil {
			return fmt.Errorf("transact: write AVET: %w", err)
		}
	}
	if attr.NeedsVAET() {
		vaetKey := codec.EncodeVAETKey(v, attr.Id, e, vld)
		vaetRecord := codec.EncodeRecord(op, v, false)
		if err := t.tx.Put(vaetKey, vaetRecord); err != nil {
			return fmt.Errorf("transact: write VAET: %w", err)
		}
	}
	return nil
}

// checkUnique reports an error if some entity other than e already
// holds v for attr as of vld.
func (t *Transaction) checkUnique(attr *value.Attribute, v value.DataValue, e value.EntityId, vld value.Validity) error {
	if !attr.Indexed {
		// A Unique attribute with no AVET index has no efficient way
		// to check this; treated as a schema configuration error.
		return &SchemaError{Kind: UniqueViolation, Keyword: attr.Name, Detail: "unique attribute must also be indexed"}
	}
	prefix := codec.EncodeAVETValuePrefix(attr.Id, v)
	upper := prefixUpperBound(prefix)
	it, err := t.tx.Iterator(prefix, upper, true)
	if err != nil {
		return fmt.Errorf("transact: unique check: %w", err)
	}
	defer it.Close()
	if !it.First() {
		return nil
	}
	for it.Valid() {
		parts, err := codec.DecodeAVETKey(it.Key())
		if err != nil {
			return err
		}
		entity := parts.Entity
		if !parts.Validity.Before(vld) {
			seekKey := codec.EncodeAVETKey(attr.Id, v, entity, vld)
			if !it.Seek(seekKey) {
				break
			}
			continue
		}
		op, _, err := codec.DecodeRecord(it.Value(), parts.Value, true)
		if err != nil {
			return err
		}
		if op == codec.OpAssert && entity != e {
			return &SchemaError{
				Kind:    UniqueViolation,
				Keyword: attr.Name,
				Detail:  fmt.Sprintf("value already held by entity %s", entity),
			}
		}
		entityPrefix := codec.EncodeAVETEntityPrefix(attr.Id, v, entity)
		skip := prefixUpperBound(entityPrefix)
		if skip == nil || !it.Seek(skip) {
			break
		}
	}
	return nil
}

// TxAttrs applies a batch of attribute schema changes.
func (t *Transaction) TxAttrs(req AttrTxRequest) error {
	if !t.writable {
		return &InvariantError{Detail: "TxAttrs called on a read-only transaction"}
	}
	for _, op := range req.Ops {
		switch op.Kind {
		case AttrInstall:
			id := t.db.alloc.nextAttrId()
			if _, err := t.catalog.Install(id, op.Attr); err != nil {
				return err
			}
		case AttrRetractOp:
			if err := t.catalog.Retract(op.Id); err != nil {
				return err
			}
		default:
			return &InvariantError{Detail: "unknown attribute op kind"}
		}
	}
	return nil
}
