package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cuemby/faktum/pkg/value"
)

// valueKindTag orders DataValue kinds the same way value.Compare does, so
// that byte order over EncodeValue's output matches value.Compare's
// total order across kinds, not just within one. Tags start at 1, so no
// encoded value begins with a 0x00 byte.
func valueKindTag(k value.Kind) byte { return byte(k) + 1 }

// EncodeValue produces an injective, order-preserving byte encoding of a
// DataValue, used as a key component in EAVT/AEVT (cardinality-many
// attributes only) and always in AVET/VAET.
func EncodeValue(v value.DataValue) []byte {
	out := []byte{valueKindTag(v.Kind)}
	switch v.Kind {
	case value.KindNull, value.KindBottom:
		// no payload
	case value.KindBool:
		if v.Bool {
			out = append(out, 1)
		} else {
			out = append(out, 0)
		}
	case value.KindInt:
		out = append(out, encodeOrderedInt64(v.Int)...)
	case value.KindFloat:
		out = append(out, encodeOrderedFloat64(v.Float)...)
	case value.KindString, value.KindKeyword:
		out = append(out, encodeOrderedBytes([]byte(v.Str))...)
	case value.KindBytes:
		out = append(out, encodeOrderedBytes(v.Bytes)...)
	case value.KindEntityRef:
		out = append(out, encodeOrderedInt64(int64(v.Entity))...)
	case value.KindList:
		for _, item := range v.List {
			out = append(out, EncodeValue(item)...)
		}
		out = append(out, 0x00, 0x00) // list terminator; safe since every element starts with a non-zero kind tag
	}
	return out
}

// DecodeValue reverses EncodeValue, returning the number of bytes of b
// consumed.
func DecodeValue(b []byte) (value.DataValue, int, error) {
	if len(b) == 0 {
		return value.DataValue{}, 0, fmt.Errorf("codec: empty value encoding")
	}
	if b[0] == 0 {
		return value.DataValue{}, 0, fmt.Errorf("codec: unknown value kind tag 0")
	}
	kind := value.Kind(b[0] - 1)
	rest := b[1:]
	switch kind {
	case value.KindNull:
		return value.Null(), 1, nil
	case value.KindBottom:
		return value.Bottom(), 1, nil
	case value.KindBool:
		if len(rest) < 1 {
			return value.DataValue{}, 0, fmt.Errorf("codec: truncated bool value")
		}
		return value.Bool(rest[0] != 0), 2, nil
	case value.KindInt:
		if len(rest) < 8 {
			return value.DataValue{}, 0, fmt.Errorf("codec: truncated int value")
		}
		return value.Int(decodeOrderedInt64(rest[:8])), 9, nil
	case value.KindFloat:
		if len(rest) < 8 {
			return value.DataValue{}, 0, fmt.Errorf("codec: truncated float value")
		}
		return value.Float(decodeOrderedFloat64(rest[:8])), 9, nil
	case value.KindString, value.KindKeyword:
		decoded, n, ok := decodeOrderedBytes(rest)
		if !ok {
			return value.DataValue{}, 0, fmt.Errorf("codec: malformed string encoding")
		}
		if kind == value.KindKeyword {
			return value.Keyword(string(decoded)), 1 + n, nil
		}
		return value.String(string(decoded)), 1 + n, nil
	case value.KindBytes:
		decoded, n, ok := decodeOrderedBytes(rest)
		if !ok {
			return value.DataValue{}, 0, fmt.Errorf("codec: malformed bytes encoding")
		}
		return value.Bytes(decoded), 1 + n, nil
	case value.KindEntityRef:
		if len(rest) < 8 {
			return value.DataValue{}, 0, fmt.Errorf("codec: truncated entity ref value")
		}
		return value.EntityRef(value.EntityId(decodeOrderedInt64(rest[:8]))), 9, nil
	case value.KindList:
		var items []value.DataValue
		consumed := 1
		for {
			if len(rest) >= 2 && rest[0] == 0x00 && rest[1] == 0x00 {
				consumed += 2
				break
			}
			item, n, err := DecodeValue(rest)
			if err != nil {
				return value.DataValue{}, 0, err
			}
			items = append(items, item)
			rest = rest[n:]
			consumed += n
		}
		return value.List(items), consumed, nil
	default:
		return value.DataValue{}, 0, fmt.Errorf("codec: unknown value kind tag %d", kind)
	}
}

// encodeOrderedInt64 maps int64's natural order onto big-endian byte
// order by flipping the sign bit, so two's-complement negatives sort
// before non-negatives.
func encodeOrderedInt64(i int64) []byte {
	u := uint64(i) ^ (1 << 63)
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, u)
	return buf
}

func decodeOrderedInt64(b []byte) int64 {
	u := binary.BigEndian.Uint64(b) ^ (1 << 63)
	return int64(u)
}

// encodeOrderedFloat64 maps float64's natural order onto big-endian byte
// order: for non-negative floats, flip the sign bit; for negative
// floats, flip every bit. This is the standard IEEE-754 order-preserving
// transform.
func encodeOrderedFloat64(f float64) []byte {
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, bits)
	return buf
}

func decodeOrderedFloat64(b []byte) float64 {
	bits := binary.BigEndian.Uint64(b)
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits)
}
