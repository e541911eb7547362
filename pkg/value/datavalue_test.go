package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareOrdersAcrossKinds(t *testing.T) {
	assert.Negative(t, Compare(Null(), Bool(false)))
	assert.Negative(t, Compare(Bool(true), Int(0)))
	assert.Negative(t, Compare(Int(100), Float(0)))
	assert.Negative(t, Compare(String("z"), Bytes(nil)))
}

func TestCompareOrdersWithinKind(t *testing.T) {
	assert.Negative(t, Compare(Int(1), Int(2)))
	assert.Positive(t, Compare(Int(2), Int(1)))
	assert.Zero(t, Compare(Int(5), Int(5)))

	assert.Negative(t, Compare(Float(1.5), Float(2.5)))
	assert.Negative(t, Compare(String("a"), String("b")))
	assert.Negative(t, Compare(EntityRef(1), EntityRef(2)))
}

func TestListCompareIsLexicographic(t *testing.T) {
	a := List([]DataValue{Int(1), Int(2)})
	b := List([]DataValue{Int(1), Int(3)})
	shorter := List([]DataValue{Int(1)})

	assert.Negative(t, Compare(a, b))
	assert.Negative(t, Compare(shorter, a))
	assert.Zero(t, Compare(a, List([]DataValue{Int(1), Int(2)})))
}

func TestEqualMatchesCompareZero(t *testing.T) {
	assert.True(t, Equal(Keyword("parent"), Keyword("parent")))
	assert.False(t, Equal(Keyword("parent"), Keyword("child")))
}
