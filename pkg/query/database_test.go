package query

import (
	"encoding/json"
	"testing"

	"github.com/cuemby/faktum/pkg/program"
	"github.com/cuemby/faktum/pkg/transact"
	"github.com/cuemby/faktum/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDatabase(t *testing.T) *transact.Database {
	t.Helper()
	db, err := transact.Open(t.TempDir(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func installAttr(t *testing.T, db *transact.Database, name string, vt value.ValueType, card value.Cardinality) {
	t.Helper()
	tx, err := db.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, tx.TxAttrs(transact.AttrTxRequest{Ops: []transact.AttrOp{{
		Kind: transact.AttrInstall,
		Attr: value.Attribute{Name: name, ValueType: vt, Cardinality: card},
	}}}))
	require.NoError(t, tx.Commit("install attr", false))
}

func assertFact(t *testing.T, db *transact.Database, e value.EntityId, attr string, v value.DataValue) {
	t.Helper()
	tx, err := db.BeginWrite()
	require.NoError(t, err)
	_, err = tx.TxTriples(transact.TxRequest{Ops: []transact.TripleOp{{
		Put: &transact.TripleWrite{Entity: e, Attr: attr, Value: v},
	}}})
	require.NoError(t, err)
	require.NoError(t, tx.Commit("fact", false))
}

func TestRunQueryAncestorRecursion(t *testing.T) {
	db := openTestDatabase(t)
	installAttr(t, db, "parent", value.ValueTypeEntityRef, value.CardinalityMany)

	const anne, bob, carol, dan value.EntityId = 1, 2, 3, 4
	assertFact(t, db, anne, "parent", value.EntityRef(bob))
	assertFact(t, db, bob, "parent", value.EntityRef(carol))
	assertFact(t, db, carol, "parent", value.EntityRef(dan))

	in := InputProgram{
		Rules: ancestorInputRules(t, dan),
	}
	result, err := NewDatabase(db).RunQuery(in)
	require.NoError(t, err)
	require.Len(t, result.Columns, 1)

	got := make([]value.EntityId, 0, len(result.Rows))
	for _, row := range result.Rows {
		require.Len(t, row, 1)
		require.Equal(t, value.KindEntityRef, row[0].Kind)
		got = append(got, row[0].Entity)
	}
	assert.ElementsMatch(t, []value.EntityId{anne, bob, carol}, got)
}

// ancestorInputRules builds the ancestor program, parameterized on an
// entity-typed query target rather than a keyword, matching how
// parent's EntityRef-typed value actually appears in the store.
func ancestorInputRules(t *testing.T, target value.EntityId) []InputRule {
	t.Helper()
	kw := func(s string) json.RawMessage {
		raw, err := json.Marshal(map[string]string{"kw": s})
		require.NoError(t, err)
		return raw
	}
	ent := func(id value.EntityId) json.RawMessage {
		raw, err := json.Marshal(map[string]int64{"e": int64(id)})
		require.NoError(t, err)
		return raw
	}
	v := func(s string) json.RawMessage {
		raw, err := json.Marshal("?" + s)
		require.NoError(t, err)
		return raw
	}
	return []InputRule{
		{
			Rule: "ancestor",
			Args: []json.RawMessage{v("a"), v("b")},
			Body: []InputAtom{{Triple: []json.RawMessage{v("a"), kw("parent"), v("b")}}},
		},
		{
			Rule: "ancestor",
			Args: []json.RawMessage{v("a"), v("b")},
			Body: []InputAtom{
				{Triple: []json.RawMessage{v("a"), kw("parent"), v("c")}},
				{Rule: "ancestor", Args: []json.RawMessage{v("c"), v("b")}},
			},
		},
		{
			Rule: "?",
			Args: []json.RawMessage{v("x")},
			Body: []InputAtom{{Rule: "ancestor", Args: []json.RawMessage{v("x"), ent(target)}}},
		},
	}
}

func TestRunQueryUnsafeVariableFails(t *testing.T) {
	db := openTestDatabase(t)
	installAttr(t, db, "parent", value.ValueTypeEntityRef, value.CardinalityMany)

	kw := func(s string) json.RawMessage {
		raw, _ := json.Marshal(map[string]string{"kw": s})
		return raw
	}
	v := func(s string) json.RawMessage {
		raw, _ := json.Marshal("?" + s)
		return raw
	}
	in := InputProgram{
		Rules: []InputRule{
			{
				Rule: "?",
				Args: []json.RawMessage{v("x"), v("y")},
				Body: []InputAtom{{Triple: []json.RawMessage{v("x"), kw("parent"), v("x")}}},
			},
		},
	}
	_, err := NewDatabase(db).RunQuery(in)
	require.Error(t, err)
}

func TestRunQueryStratificationNegationInCycleFails(t *testing.T) {
	db := openTestDatabase(t)
	installAttr(t, db, "edge", value.ValueTypeEntityRef, value.CardinalityMany)

	kw := func(s string) json.RawMessage {
		raw, _ := json.Marshal(map[string]string{"kw": s})
		return raw
	}
	v := func(s string) json.RawMessage {
		raw, _ := json.Marshal("?" + s)
		return raw
	}
	in := InputProgram{
		Rules: []InputRule{
			{
				Rule: "reach",
				Args: []json.RawMessage{v("a"), v("b")},
				Body: []InputAtom{{Triple: []json.RawMessage{v("a"), kw("edge"), v("b")}}},
			},
			{
				Rule: "reach",
				Args: []json.RawMessage{v("a"), v("b")},
				Body: []InputAtom{
					{Triple: []json.RawMessage{v("a"), kw("edge"), v("c")}},
					{Triple: []json.RawMessage{v("c"), kw("edge"), v("b")}},
					{Rule: "reach", Args: []json.RawMessage{v("c"), v("b")}, Not: true},
				},
			},
			{
				Rule: "?",
				Args: []json.RawMessage{v("x")},
				Body: []InputAtom{{Rule: "reach", Args: []json.RawMessage{v("x"), v("x")}}},
			},
		},
	}
	_, err := NewDatabase(db).RunQuery(in)
	require.Error(t, err)
	var stratErr *program.StratificationError
	assert.ErrorAs(t, err, &stratErr)
}
