package codec

import (
	"encoding/binary"

	"github.com/cuemby/faktum/pkg/value"
)

func encodeEntityId(e value.EntityId) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(e))
	return buf
}

func decodeEntityId(b []byte) value.EntityId {
	return value.EntityId(binary.BigEndian.Uint64(b))
}

func encodeAttrId(a value.AttrId) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(a))
	return buf
}

func decodeAttrId(b []byte) value.AttrId {
	return value.AttrId(binary.BigEndian.Uint32(b))
}

// encodeValidity encodes a Validity so that a *greater* validity sorts
// *earlier*: sign-flip to map signed order onto unsigned order, then
// bit-invert the whole word to reverse direction. This is what lets a
// scanner seek straight to a target validity and land on the most
// recent entry at or before it, rather than stepping through newer
// versions one at a time.
func encodeValidity(v value.Validity) []byte {
	u := uint64(int64(v)) ^ (1 << 63)
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, ^u)
	return buf
}

func decodeValidity(b []byte) value.Validity {
	u := ^binary.BigEndian.Uint64(b)
	return value.Validity(int64(u ^ (1 << 63)))
}

// EncodeEAVTKey builds the key for the EAVT sort order. For
// cardinality-many attributes, withValue must be true: the encoded value
// is inserted before the validity so that every distinct live value of
// the same (e, a) group occupies its own contiguous sub-range, and a
// scanner that has decided one value's liveness can skip straight past
// its remaining history to the next value with a single seek. For
// cardinality-one attributes withValue is false: the (e, a) pair has at
// most one live value, so validity alone disambiguates history.
func EncodeEAVTKey(e value.EntityId, a value.AttrId, vld value.Validity, v value.DataValue, withValue bool) []byte {
	key := []byte{byte(TagTripleEAVT)}
	key = append(key, encodeEntityId(e)...)
	key = append(key, encodeAttrId(a)...)
	if withValue {
		key = append(key, EncodeValue(v)...)
	}
	key = append(key, encodeValidity(vld)...)
	return key
}

// EncodeEAVTPrefix returns the key prefix fixing (e, a); appending a
// validity encoding to this prefix and seeking gives the "latest
// assertion at or before vld" scan start for a cardinality-one attribute.
func EncodeEAVTPrefix(e value.EntityId, a value.AttrId) []byte {
	key := []byte{byte(TagTripleEAVT)}
	key = append(key, encodeEntityId(e)...)
	key = append(key, encodeAttrId(a)...)
	return key
}

// EncodeEAVTValuePrefix returns the key prefix fixing (e, a, v), used to
// re-seek past one value's history during a cardinality-many EAVT scan.
func EncodeEAVTValuePrefix(e value.EntityId, a value.AttrId, v value.DataValue) []byte {
	key := EncodeEAVTPrefix(e, a)
	return append(key, EncodeValue(v)...)
}

// EncodeAEVTKey builds the key for the AEVT sort order, used by scan_ae
// to enumerate (entity, value) pairs of one attribute. As with
// EncodeEAVTKey, a cardinality-many value sits before the validity so
// one entity's distinct values each form a contiguous, independently
// skippable sub-range.
func EncodeAEVTKey(a value.AttrId, e value.EntityId, vld value.Validity, v value.DataValue, withValue bool) []byte {
	key := []byte{byte(TagTripleAEVT)}
	key = append(key, encodeAttrId(a)...)
	key = append(key, encodeEntityId(e)...)
	if withValue {
		key = append(key, EncodeValue(v)...)
	}
	key = append(key, encodeValidity(vld)...)
	return key
}

// EncodeAEVTAttrPrefix returns the key prefix fixing only the attribute,
// the scan range for scan_ae.
func EncodeAEVTAttrPrefix(a value.AttrId) []byte {
	return append([]byte{byte(TagTripleAEVT)}, encodeAttrId(a)...)
}

// EncodeAEVTEntityPrefix returns the key prefix fixing (a, e), used to
// re-seek past one entity's group during scan_ae's skip-forward step.
func EncodeAEVTEntityPrefix(a value.AttrId, e value.EntityId) []byte {
	key := []byte{byte(TagTripleAEVT)}
	key = append(key, encodeAttrId(a)...)
	key = append(key, encodeEntityId(e)...)
	return key
}

// EncodeAEVTValuePrefix returns the key prefix fixing (a, e, v), used to
// re-seek past one value's history during a cardinality-many scan_ae pass.
func EncodeAEVTValuePrefix(a value.AttrId, e value.EntityId, v value.DataValue) []byte {
	key := EncodeAEVTEntityPrefix(a, e)
	return append(key, EncodeValue(v)...)
}

// EncodeAVETKey builds the key for the AVET sort order, maintained only
// for attributes with the Indexed flag set. Value is always part of the
// key here regardless of cardinality, since the index's purpose is
// looking up entities by value.
func EncodeAVETKey(a value.AttrId, v value.DataValue, e value.EntityId, vld value.Validity) []byte {
	key := []byte{byte(TagTripleAVET)}
	key = append(key, encodeAttrId(a)...)
	key = append(key, EncodeValue(v)...)
	key = append(key, encodeEntityId(e)...)
	key = append(key, encodeValidity(vld)...)
	return key
}

// EncodeAVETValuePrefix returns the key prefix fixing (a, v), the scan
// range for "entities holding value v for attribute a".
func EncodeAVETValuePrefix(a value.AttrId, v value.DataValue) []byte {
	key := []byte{byte(TagTripleAVET)}
	key = append(key, encodeAttrId(a)...)
	key = append(key, EncodeValue(v)...)
	return key
}

// EncodeAVETEntityPrefix returns the key prefix fixing (a, v, e), used
// to re-seek past one entity's group during a unique-constraint scan.
func EncodeAVETEntityPrefix(a value.AttrId, v value.DataValue, e value.EntityId) []byte {
	key := EncodeAVETValuePrefix(a, v)
	key = append(key, encodeEntityId(e)...)
	return key
}

// EncodeVAETKey builds the key for the VAET sort order, maintained only
// for EntityRef-valued attributes, supporting backward traversal from a
// referenced entity to its referrers.
func EncodeVAETKey(v value.DataValue, a value.AttrId, e value.EntityId, vld value.Validity) []byte {
	key := []byte{byte(TagTripleVAET)}
	key = append(key, EncodeValue(v)...)
	key = append(key, encodeAttrId(a)...)
	key = append(key, encodeEntityId(e)...)
	key = append(key, encodeValidity(vld)...)
	return key
}

// EncodeVAETValuePrefix returns the key prefix fixing the referenced
// entity value, the scan range for "who points at this entity".
func EncodeVAETValuePrefix(v value.DataValue) []byte {
	key := []byte{byte(TagTripleVAET)}
	key = append(key, EncodeValue(v)...)
	return key
}

// EncodeVAETAttrPrefix returns the key prefix fixing (v, a), the scan
// range for "entities referencing v through attribute a".
func EncodeVAETAttrPrefix(v value.DataValue, a value.AttrId) []byte {
	key := EncodeVAETValuePrefix(v)
	return append(key, encodeAttrId(a)...)
}

// EncodeVAETEntityPrefix returns the key prefix fixing (v, a, e), used to
// re-seek past one referrer's group during a backward-reference scan.
func EncodeVAETEntityPrefix(v value.DataValue, a value.AttrId, e value.EntityId) []byte {
	key := EncodeVAETAttrPrefix(v, a)
	return append(key, encodeEntityId(e)...)
}

// EncodeAttrByIdKey builds the catalog lookup key for an attribute id.
func EncodeAttrByIdKey(id value.AttrId) []byte {
	return append([]byte{byte(TagAttrById)}, encodeAttrId(id)...)
}

// EncodeAttrByKeywordKey builds the catalog lookup key for an
// attribute's keyword name.
func EncodeAttrByKeywordKey(name string) []byte {
	return append([]byte{byte(TagAttrByKeyword)}, encodeOrderedBytes([]byte(name))...)
}

// EncodeTxMetaKey builds the key for a transaction metadata record.
func EncodeTxMetaKey(tx value.TxId) []byte {
	buf := make([]byte, 9)
	buf[0] = byte(TagTxMeta)
	binary.BigEndian.PutUint64(buf[1:], uint64(tx))
	return buf
}

// TripleKeyParts holds the decoded fixed-width components common to all
// four triple sort orders, decoded back out of whichever order's key
// shape it was parsed from.
type TripleKeyParts struct {
	Entity   value.EntityId
	Attr     value.AttrId
	Validity value.Validity
	Value    value.DataValue // zero value if the key did not carry one
	HasValue bool
}

// decodeValueAndValidity splits the tail of an EAVT/AEVT key into its
// optional value component and trailing validity: a value, when present,
// sits directly before the fixed-width validity suffix.
func decodeValueAndValidity(rest []byte) (value.DataValue, bool, value.Validity, error) {
	if len(rest) == 8 {
		return value.DataValue{}, false, decodeValidity(rest), nil
	}
	v, n, err := DecodeValue(rest)
	if err != nil {
		return value.DataValue{}, false, 0, err
	}
	return v, true, decodeValidity(rest[n:]), nil
}

// DecodeEAVTKey decodes a key produced by EncodeEAVTKey.
func DecodeEAVTKey(key []byte) (TripleKeyParts, error) {
	rest := key[1:]
	e := decodeEntityId(rest[:8])
	rest = rest[8:]
	a := decodeAttrId(rest[:4])
	rest = rest[4:]
	v, hasValue, vld, err := decodeValueAndValidity(rest)
	if err != nil {
		return TripleKeyParts{}, err
	}
	return TripleKeyParts{Entity: e, Attr: a, Validity: vld, Value: v, HasValue: hasValue}, nil
}

// DecodeAEVTKey decodes a key produced by EncodeAEVTKey.
func DecodeAEVTKey(key []byte) (TripleKeyParts, error) {
	rest := key[1:]
	a := decodeAttrId(rest[:4])
	rest = rest[4:]
	e := decodeEntityId(rest[:8])
	rest = rest[8:]
	v, hasValue, vld, err := decodeValueAndValidity(rest)
	if err != nil {
		return TripleKeyParts{}, err
	}
	return TripleKeyParts{Entity: e, Attr: a, Validity: vld, Value: v, HasValue: hasValue}, nil
}

// DecodeAVETKey decodes a key produced by EncodeAVETKey.
func DecodeAVETKey(key []byte) (TripleKeyParts, error) {
	rest := key[1:]
	a := decodeAttrId(rest[:4])
	rest = rest[4:]
	v, n, err := DecodeValue(rest)
	if err != nil {
		return TripleKeyParts{}, err
	}
	rest = rest[n:]
	e := decodeEntityId(rest[:8])
	rest = rest[8:]
	vld := decodeValidity(rest[:8])
	return TripleKeyParts{Entity: e, Attr: a, Validity: vld, Value: v, HasValue: true}, nil
}

// DecodeVAETKey decodes a key produced by EncodeVAETKey.
func DecodeVAETKey(key []byte) (TripleKeyParts, error) {
	rest := key[1:]
	v, n, err := DecodeValue(rest)
	if err != nil {
		return TripleKeyParts{}, err
	}
	rest = rest[n:]
	a := decodeAttrId(rest[:4])
	rest = rest[4:]
	e := decodeEntityId(rest[:8])
	rest = rest[8:]
	vld := decodeValidity(rest[:8])
	return TripleKeyParts{Entity: e, Attr: a, Validity: vld, Value: v, HasValue: true}, nil
}
