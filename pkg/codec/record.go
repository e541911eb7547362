package codec

import (
	"fmt"

	"github.com/cuemby/faktum/pkg/value"
)

// EncodeRecord builds the stored value bytes for a triple entry: a
// leading op byte, followed by the encoded DataValue when the attribute
// is cardinality-one (the value is not already part of the key), or
// nothing when cardinality-many (the value is already part of the key).
func EncodeRecord(op Op, v value.DataValue, includeValue bool) []byte {
	if !includeValue {
		return []byte{byte(op)}
	}
	return append([]byte{byte(op)}, EncodeValue(v)...)
}

// DecodeRecord reverses EncodeRecord. keyValue is the value decoded from
// the key itself, supplied when includeValue was false at encode time.
func DecodeRecord(b []byte, keyValue value.DataValue, hadKeyValue bool) (Op, value.DataValue, error) {
	if len(b) == 0 {
		return 0, value.DataValue{}, fmt.Errorf("codec: empty record")
	}
	op := Op(b[0])
	if op != OpAssert && op != OpRetract {
		return 0, value.DataValue{}, fmt.Errorf("codec: unknown op tag %d", op)
	}
	if hadKeyValue {
		return op, keyValue, nil
	}
	if len(b) == 1 {
		return op, value.DataValue{}, fmt.Errorf("codec: missing value payload for cardinality-one record")
	}
	v, _, err := DecodeValue(b[1:])
	if err != nil {
		return 0, value.DataValue{}, err
	}
	return op, v, nil
}
