package transact_test

import (
	"testing"

	"github.com/cuemby/faktum/pkg/transact"
	"github.com/cuemby/faktum/pkg/value"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *transact.Database {
	t.Helper()
	db, err := transact.Open(t.TempDir(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func installAttr(t *testing.T, db *transact.Database, attr value.Attribute) value.AttrId {
	t.Helper()
	tx, err := db.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, tx.TxAttrs(transact.AttrTxRequest{Ops: []transact.AttrOp{{Kind: transact.AttrInstall, Attr: attr}}}))
	require.NoError(t, tx.Commit("install", false))

	read, err := db.Begin(false)
	require.NoError(t, err)
	defer read.Rollback()
	got, err := read.Catalog().LookupByKeyword(attr.Name)
	require.NoError(t, err)
	require.NotNil(t, got)
	return got.Id
}

// TestCardinalityOneOverwriteRetractsPrevious exercises S2: a second
// assertion on a cardinality-one attribute must replace the first, not
// accumulate alongside it.
func TestCardinalityOneOverwriteRetractsPrevious(t *testing.T) {
	db := openTestDB(t)
	attrID := installAttr(t, db, value.Attribute{Name: "name", ValueType: value.ValueTypeString, Cardinality: value.CardinalityOne})

	const e value.EntityId = 1

	tx, err := db.BeginWrite()
	require.NoError(t, err)
	_, err = tx.TxTriples(transact.TxRequest{Ops: []transact.TripleOp{{Put: &transact.TripleWrite{Entity: e, Attr: "name", Value: value.String("anne")}}}})
	require.NoError(t, err)
	require.NoError(t, tx.Commit("set name", false))

	tx, err = db.BeginWrite()
	require.NoError(t, err)
	_, err = tx.TxTriples(transact.TxRequest{Ops: []transact.TripleOp{{Put: &transact.TripleWrite{Entity: e, Attr: "name", Value: value.String("annette")}}}})
	require.NoError(t, err)
	require.NoError(t, tx.Commit("rename", false))

	read, err := db.Begin(false)
	require.NoError(t, err)
	defer read.Rollback()
	v, ok, err := read.ReadValue(e, attrID, value.ValidityMax)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, value.String("annette"), v)
}

// TestRetractHidesValue exercises S3: a retraction of a live triple
// makes ReadValue report absent as of a later validity.
func TestRetractHidesValue(t *testing.T) {
	db := openTestDB(t)
	attrID := installAttr(t, db, value.Attribute{Name: "nickname", ValueType: value.ValueTypeString, Cardinality: value.CardinalityMany, WithHistory: true})

	const e value.EntityId = 1

	tx, err := db.BeginWrite()
	require.NoError(t, err)
	_, err = tx.TxTriples(transact.TxRequest{Ops: []transact.TripleOp{{Put: &transact.TripleWrite{Entity: e, Attr: "nickname", Value: value.String("ace")}}}})
	require.NoError(t, err)
	require.NoError(t, tx.Commit("assert nickname", false))

	tx, err = db.BeginWrite()
	require.NoError(t, err)
	_, err = tx.TxTriples(transact.TxRequest{Ops: []transact.TripleOp{{Retract: &transact.TripleWrite{Entity: e, Attr: "nickname", Value: value.String("ace")}}}})
	require.NoError(t, err)
	require.NoError(t, tx.Commit("retract nickname", false))

	read, err := db.Begin(false)
	require.NoError(t, err)
	defer read.Rollback()
	_, ok, err := read.ReadValue(e, attrID, value.ValidityMax)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDryRunCommitDoesNotPersist(t *testing.T) {
	db := openTestDB(t)
	installAttr(t, db, value.Attribute{Name: "name", ValueType: value.ValueTypeString, Cardinality: value.CardinalityOne})

	const e value.EntityId = 1
	tx, err := db.BeginWrite()
	require.NoError(t, err)
	_, err = tx.TxTriples(transact.TxRequest{Ops: []transact.TripleOp{{Put: &transact.TripleWrite{Entity: e, Attr: "name", Value: value.String("anne")}}}})
	require.NoError(t, err)
	require.NoError(t, tx.Commit("dry run", true))

	read, err := db.Begin(false)
	require.NoError(t, err)
	defer read.Rollback()
	attr, err := read.Catalog().LookupByKeyword("name")
	require.NoError(t, err)
	_, ok, err := read.ReadValue(e, attr.Id, value.ValidityMax)
	require.NoError(t, err)
	require.False(t, ok)
}
