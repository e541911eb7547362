package codec

import (
	"sort"
	"testing"

	"github.com/cuemby/faktum/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeValueRoundTrips(t *testing.T) {
	cases := []value.DataValue{
		value.Null(),
		value.Bool(true),
		value.Bool(false),
		value.Int(-42),
		value.Int(0),
		value.Int(1 << 40),
		value.Float(-3.5),
		value.Float(0),
		value.Float(2.71828),
		value.String(""),
		value.String("hello"),
		value.Bytes([]byte{0, 1, 2, 3}),
		value.Keyword("parent"),
		value.EntityRef(value.EntityId(7)),
		value.List([]value.DataValue{value.Int(1), value.String("x")}),
	}
	for _, v := range cases {
		encoded := EncodeValue(v)
		decoded, n, err := DecodeValue(encoded)
		require.NoError(t, err)
		assert.Equal(t, len(encoded), n)
		assert.True(t, value.Equal(v, decoded), "round trip mismatch for %v", v)
	}
}

// TestEncodeValueOrderMatchesCompare checks EncodeValue's byte order
// agrees with value.Compare across both same-kind and cross-kind pairs,
// the property the AVET/VAET indexes depend on.
func TestEncodeValueOrderMatchesCompare(t *testing.T) {
	values := []value.DataValue{
		value.Null(),
		value.Bool(false),
		value.Bool(true),
		value.Int(-10),
		value.Int(0),
		value.Int(10),
		value.Float(-1.5),
		value.Float(1.5),
		value.String("a"),
		value.String("b"),
		value.Keyword("a"),
		value.EntityRef(1),
		value.EntityRef(2),
	}
	sorted := append([]value.DataValue(nil), values...)
	sort.SliceStable(sorted, func(i, j int) bool { return value.Compare(sorted[i], sorted[j]) < 0 })

	encodedOrder := append([]value.DataValue(nil), values...)
	sort.SliceStable(encodedOrder, func(i, j int) bool {
		return string(EncodeValue(encodedOrder[i])) < string(EncodeValue(encodedOrder[j]))
	})

	for i := range sorted {
		assert.True(t, value.Equal(sorted[i], encodedOrder[i]), "order mismatch at %d: compare-sorted %v, encode-sorted %v", i, sorted[i], encodedOrder[i])
	}
}
