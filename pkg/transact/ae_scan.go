package transact

import (
	"fmt"

	"github.com/cuemby/faktum/pkg/codec"
	"github.com/cuemby/faktum/pkg/storage"
	"github.com/cuemby/faktum/pkg/value"
)

// AEEntry is one (entity, value) pair produced by scanning AEVT for one
// attribute.
type AEEntry struct {
	Entity value.EntityId
	Value  value.DataValue
}

// AEScanner implements scan_ae: an AEVT range scan that, for each
// (attr, entity) group, decides liveness once and then skips straight
// to the next entity's group rather than walking every historical
// entry — O(distinct entities) rather than O(history).
//
// For a cardinality-one attribute a group yields at most one entry: the
// first assertion at or before vld, or nothing if a retract or no
// qualifying entry is found first. For cardinality-many, every distinct
// value in the group is judged independently: its most recent entry at
// or before vld decides whether it is currently live.
type AEScanner struct {
	it       storage.Iterator
	attr     value.AttrId
	vld      value.Validity
	many     bool
	pending  []AEEntry
	pendingI int
	done     bool
}

// NewAEScanner opens a scanner over attr's AEVT range within tx.
func NewAEScanner(tx storage.Tx, attr value.AttrId, vld value.Validity, cardinalityMany bool) (*AEScanner, error) {
	prefix := codec.EncodeAEVTAttrPrefix(attr)
	upper := prefixUpperBound(prefix)
	it, err := tx.Iterator(prefix, upper, true)
	if err != nil {
		return nil, fmt.Errorf("transact: scan_ae: %w", err)
	}
	s := &AEScanner{it: it, attr: attr, vld: vld, many: cardinalityMany}
	if !it.First() {
		s.done = true
	}
	return s, nil
}

// Next advances to the next live (entity, value) pair, reporting
// whether one was found.
func (s *AEScanner) Next() (AEEntry, bool, error) {
	for {
		if s.pendingI < len(s.pending) {
			e := s.pending[s.pendingI]
			s.pendingI++
			return e, true, nil
		}
		if s.done {
			return AEEntry{}, false, nil
		}
		group, err := s.consumeGroup()
		if err != nil {
			return AEEntry{}, false, err
		}
		s.pending = group
		s.pendingI = 0
	}
}

// Close releases the underlying iterator.
func (s *AEScanner) Close() error { return s.it.Close() }

func (s *AEScanner) consumeGroup() ([]AEEntry, error) {
	if !s.it.Valid() {
		s.done = true
		return nil, nil
	}
	parts, err := codec.DecodeAEVTKey(s.it.Key())
	if err != nil {
		return nil, err
	}
	entity := parts.Entity
	entityPrefix := codec.EncodeAEVTEntityPrefix(s.attr, entity)

	var result []AEEntry
	if s.many {
		result, err = s.consumeManyGroup(entity)
	} else {
		result, err = s.consumeOneGroup(entity)
	}
	if err != nil {
		return nil, err
	}
	s.skipPastEntity(entityPrefix)
	return result, nil
}

// consumeOneGroup decides a cardinality-one entity's live value from its
// first entry at or before vld. If the entry at the scanner's current
// position is newer than vld, it seeks straight to the decision point
// instead of stepping through every too-recent version; the caller
// (consumeGroup) seeks past whatever is left of the entity's history
// once this returns.
func (s *AEScanner) consumeOneGroup(entity value.EntityId) ([]AEEntry, error) {
	for s.it.Valid() {
		parts, err := codec.DecodeAEVTKey(s.it.Key())
		if err != nil {
			return nil, err
		}
		if parts.Entity != entity {
			return nil, nil
		}
		if !parts.Validity.Before(s.vld) {
			seekKey := codec.EncodeAEVTKey(s.attr, entity, s.vld, value.DataValue{}, false)
			if !s.it.Seek(seekKey) {
				return nil, nil
			}
			continue
		}
		op, v, err := codec.DecodeRecord(s.it.Value(), value.DataValue{}, false)
		if err != nil {
			return nil, err
		}
		if op == codec.OpAssert {
			return []AEEntry{{Entity: entity, Value: v}}, nil
		}
		return nil, nil
	}
	return nil, nil
}

// consumeManyGroup judges every distinct value of a cardinality-many
// entity independently. The key layout groups each value's history into
// its own contiguous sub-range, so once a value's liveness is decided
// the rest of its history is skipped with a single seek rather than
// stepped through one entry at a time; a too-recent entry is likewise
// jumped past by seeking directly to that value's decision point.
func (s *AEScanner) consumeManyGroup(entity value.EntityId) ([]AEEntry, error) {
	var result []AEEntry
	for s.it.Valid() {
		parts, err := codec.DecodeAEVTKey(s.it.Key())
		if err != nil {
			return nil, err
		}
		if parts.Entity != entity {
			return result, nil
		}
		if !parts.Validity.Before(s.vld) {
			seekKey := codec.EncodeAEVTKey(s.attr, entity, s.vld, parts.Value, true)
			if !s.it.Seek(seekKey) {
				return result, nil
			}
			continue
		}
		op, v, err := codec.DecodeRecord(s.it.Value(), parts.Value, true)
		if err != nil {
			return nil, err
		}
		if op == codec.OpAssert {
			result = append(result, AEEntry{Entity: entity, Value: v})
		}
		valuePrefix := codec.EncodeAEVTValuePrefix(s.attr, entity, parts.Value)
		skip := prefixUpperBound(valuePrefix)
		if skip == nil || !s.it.Seek(skip) {
			return result, nil
		}
	}
	return result, nil
}

func (s *AEScanner) skipPastEntity(entityPrefix []byte) {
	skip := prefixUpperBound(entityPrefix)
	if skip == nil {
		s.done = true
		return
	}
	if !s.it.Seek(skip) {
		s.done = true
	}
}

// prefixUpperBound returns the smallest key strictly greater than every
// key beginning with prefix, or nil if prefix is all 0xFF bytes.
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
