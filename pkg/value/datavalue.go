package value

import (
	"bytes"
	"fmt"
)

// Kind tags the variant held by a DataValue.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindKeyword
	KindEntityRef
	KindList
	// KindBottom is an internal sentinel used by the relation algebra to
	// represent "no value" in outer-join style placeholders; it is never
	// produced by the transaction layer.
	KindBottom
)

// DataValue is the tagged union of values a triple's value position, or a
// rule variable binding, can hold. Only one of the scalar fields is
// meaningful for a given Kind.
type DataValue struct {
	Kind Kind

	Bool    bool
	Int     int64
	Float   float64
	Str     string // also backs KindKeyword
	Bytes   []byte
	Entity  EntityId
	List    []DataValue
}

func Null() DataValue                  { return DataValue{Kind: KindNull} }
func Bottom() DataValue                { return DataValue{Kind: KindBottom} }
func Bool(b bool) DataValue            { return DataValue{Kind: KindBool, Bool: b} }
func Int(i int64) DataValue            { return DataValue{Kind: KindInt, Int: i} }
func Float(f float64) DataValue        { return DataValue{Kind: KindFloat, Float: f} }
func String(s string) DataValue        { return DataValue{Kind: KindString, Str: s} }
func Bytes(b []byte) DataValue         { return DataValue{Kind: KindBytes, Bytes: b} }
func Keyword(k string) DataValue       { return DataValue{Kind: KindKeyword, Str: k} }
func EntityRef(id EntityId) DataValue  { return DataValue{Kind: KindEntityRef, Entity: id} }
func List(items []DataValue) DataValue { return DataValue{Kind: KindList, List: items} }

// Compare returns -1, 0, or 1 establishing a total order over DataValue,
// used both by the key codec (AVET/VAET byte ordering) and by the
// relational evaluator (dedup, sort, ORDER BY). Values of different kinds
// order by Kind; Int and Float are kept as separate ranks rather than
// unified by numeric magnitude, since nothing in the engine compares a
// variable across two different declared types.
func Compare(a, b DataValue) int {
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	switch a.Kind {
	case KindNull, KindBottom:
		return 0
	case KindBool:
		return boolCompare(a.Bool, b.Bool)
	case KindInt:
		return int64Compare(a.Int, b.Int)
	case KindFloat:
		return float64Compare(a.Float, b.Float)
	case KindString, KindKeyword:
		return stringCompare(a.Str, b.Str)
	case KindBytes:
		return bytes.Compare(a.Bytes, b.Bytes)
	case KindEntityRef:
		return int64Compare(int64(a.Entity), int64(b.Entity))
	case KindList:
		return listCompare(a.List, b.List)
	default:
		return 0
	}
}

// Equal reports whether a and b compare equal.
func Equal(a, b DataValue) bool { return Compare(a, b) == 0 }

func boolCompare(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func int64Compare(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func float64Compare(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func stringCompare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func listCompare(a, b []DataValue) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return int64Compare(int64(len(a)), int64(len(b)))
}

func (v DataValue) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBottom:
		return "⊥"
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindString:
		return fmt.Sprintf("%q", v.Str)
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.Bytes))
	case KindKeyword:
		return ":" + v.Str
	case KindEntityRef:
		return v.Entity.String()
	case KindList:
		return fmt.Sprintf("%v", v.List)
	default:
		return "?"
	}
}
