package relation

import (
	"testing"

	"github.com/cuemby/faktum/pkg/storage"
	"github.com/cuemby/faktum/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCtx answers ReadTable from an in-memory map and panics on any
// triple-scan method, since the relation tests in this file only ever
// join/filter/reorder Derived relations.
type fakeCtx struct {
	tables map[storage.TempStoreId][]Row
}

func (f *fakeCtx) ValuesForEntity(value.EntityId, value.AttrId, value.Validity) ([]value.DataValue, error) {
	panic("not used")
}
func (f *fakeCtx) EntitiesForValue(value.AttrId, value.DataValue, value.Validity) ([]value.EntityId, error) {
	panic("not used")
}
func (f *fakeCtx) HasValue(value.EntityId, value.AttrId, value.DataValue, value.Validity) (bool, error) {
	panic("not used")
}
func (f *fakeCtx) ScanAllPairs(value.AttrId, value.Validity) ([]Pair, error) {
	panic("not used")
}
func (f *fakeCtx) ReadTable(table storage.TempStoreId) ([]Row, error) {
	return f.tables[table], nil
}

func rowsOf(rel *Relation, ctx EvalContext) []Row {
	rows, err := rel.Rows(ctx)
	if err != nil {
		panic(err)
	}
	return rows
}

func TestJoinMatchesOnSharedKey(t *testing.T) {
	ctx := &fakeCtx{tables: map[storage.TempStoreId][]Row{
		1: {{value.EntityRef(1), value.Int(10)}, {value.EntityRef(2), value.Int(20)}},
		2: {{value.EntityRef(1), value.String("a")}, {value.EntityRef(3), value.String("c")}},
	}}
	left := NewDerived([]string{"e", "n"}, 1)
	right := NewDerived([]string{"e", "s"}, 2)
	j, err := Join(left, right, []string{"e"}, []string{"e"})
	require.NoError(t, err)

	rows := rowsOf(j, ctx)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{value.EntityRef(1), value.Int(10), value.String("a")}, rows[0])
	assert.Equal(t, []string{"e", "n", "s"}, j.Bindings())
}

func TestCartesianJoinConcatenatesAllPairs(t *testing.T) {
	ctx := &fakeCtx{tables: map[storage.TempStoreId][]Row{
		1: {{value.Int(1)}, {value.Int(2)}},
		2: {{value.String("x")}, {value.String("y")}},
	}}
	j := CartesianJoin(NewDerived([]string{"a"}, 1), NewDerived([]string{"b"}, 2))
	rows := rowsOf(j, ctx)
	assert.Len(t, rows, 4)
}

func TestAntiJoinKeepsOnlyUnmatchedLeftRows(t *testing.T) {
	ctx := &fakeCtx{tables: map[storage.TempStoreId][]Row{
		1: {{value.EntityRef(1)}, {value.EntityRef(2)}, {value.EntityRef(3)}},
		2: {{value.EntityRef(2)}},
	}}
	left := NewDerived([]string{"e"}, 1)
	right := NewDerived([]string{"e"}, 2)
	aj, err := AntiJoin(left, right, []string{"e"}, []string{"e"})
	require.NoError(t, err)

	rows := rowsOf(aj, ctx)
	var got []value.EntityId
	for _, r := range rows {
		got = append(got, r[0].Entity)
	}
	assert.ElementsMatch(t, []value.EntityId{1, 3}, got)
	assert.Equal(t, []string{"e"}, aj.Bindings())
}

func TestAntiJoinOnEmptyRightKeepsAllLeftRows(t *testing.T) {
	ctx := &fakeCtx{tables: map[storage.TempStoreId][]Row{
		1: {{value.EntityRef(1)}, {value.EntityRef(2)}},
		2: {},
	}}
	aj, err := AntiJoin(NewDerived([]string{"e"}, 1), NewDerived([]string{"e"}, 2), []string{"e"}, []string{"e"})
	require.NoError(t, err)
	assert.Len(t, rowsOf(aj, ctx), 2)
}

func TestFilterKeepsMatchingRows(t *testing.T) {
	ctx := &fakeCtx{tables: map[storage.TempStoreId][]Row{
		1: {{value.Int(1)}, {value.Int(5)}, {value.Int(10)}},
	}}
	f := Filter(NewDerived([]string{"n"}, 1), Predicate{Op: ">=", Left: value.Variable("n"), Right: value.Constant(value.Int(5))})
	rows := rowsOf(f, ctx)
	var got []int64
	for _, r := range rows {
		got = append(got, r[0].Int)
	}
	assert.ElementsMatch(t, []int64{5, 10}, got)
}

func TestReorderPermutesColumns(t *testing.T) {
	ctx := &fakeCtx{tables: map[storage.TempStoreId][]Row{
		1: {{value.Int(1), value.String("one")}},
	}}
	inner := NewDerived([]string{"n", "s"}, 1)
	r := Reorder(inner, []string{"s", "n"})
	rows := rowsOf(r, ctx)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{value.String("one"), value.Int(1)}, rows[0])
}

func TestEliminateTempVarsDropsUnkeptColumns(t *testing.T) {
	ctx := &fakeCtx{tables: map[storage.TempStoreId][]Row{
		1: {{value.Int(1), value.String("tmp"), value.Bool(true)}},
	}}
	inner := NewDerived([]string{"n", "_t1", "b"}, 1)
	r := EliminateTempVars(inner, map[string]bool{"n": true, "b": true})
	assert.Equal(t, []string{"n", "b"}, r.Bindings())
	rows := rowsOf(r, ctx)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{value.Int(1), value.Bool(true)}, rows[0])
}

func TestUnitRowsIsOneEmptyRow(t *testing.T) {
	rows := rowsOf(Unit(), &fakeCtx{})
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0])
}

func TestEncodeDecodeRowRoundTrips(t *testing.T) {
	row := Row{value.Int(42), value.String("hi"), value.Bool(false), value.EntityRef(7)}
	encoded := EncodeRow(row)
	decoded, err := DecodeRow(encoded)
	require.NoError(t, err)
	assert.Equal(t, row, decoded)
}

func TestDescribeIncludesJoinKeys(t *testing.T) {
	left := NewDerived([]string{"e", "n"}, 1)
	right := NewDerived([]string{"e", "s"}, 2)
	j, err := Join(left, right, []string{"e"}, []string{"e"})
	require.NoError(t, err)
	desc := j.Describe("")
	assert.Contains(t, desc, "Join(e,n,s) on e=e")
}
