package catalog_test

import (
	"testing"

	"github.com/cuemby/faktum/pkg/catalog"
	"github.com/cuemby/faktum/pkg/transact"
	"github.com/cuemby/faktum/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openCatalogTx(t *testing.T) (storageTx, func()) {
	t.Helper()
	db, err := transact.Open(t.TempDir(), t.TempDir())
	require.NoError(t, err)
	tx, err := db.Begin(true)
	require.NoError(t, err)
	return storageTx{cat: catalog.New(tx.Storage())}, func() {
		tx.Rollback()
		db.Close()
	}
}

type storageTx struct {
	cat *catalog.Catalog
}

func TestInstallThenLookupByKeywordAndId(t *testing.T) {
	tx, done := openCatalogTx(t)
	defer done()

	attr, err := tx.cat.Install(1, value.Attribute{Name: "parent", ValueType: value.ValueTypeEntityRef, Cardinality: value.CardinalityMany})
	require.NoError(t, err)
	assert.Equal(t, value.AttrId(1), attr.Id)

	byKw, err := tx.cat.LookupByKeyword("parent")
	require.NoError(t, err)
	require.NotNil(t, byKw)
	assert.Equal(t, value.AttrId(1), byKw.Id)

	byId, err := tx.cat.Lookup(1)
	require.NoError(t, err)
	require.NotNil(t, byId)
	assert.Equal(t, "parent", byId.Name)
}

func TestInstallDuplicateNameFails(t *testing.T) {
	tx, done := openCatalogTx(t)
	defer done()

	_, err := tx.cat.Install(1, value.Attribute{Name: "parent", ValueType: value.ValueTypeEntityRef})
	require.NoError(t, err)
	_, err = tx.cat.Install(2, value.Attribute{Name: "parent", ValueType: value.ValueTypeString})
	assert.Error(t, err)
}

func TestRetractHidesFromBothLookups(t *testing.T) {
	tx, done := openCatalogTx(t)
	defer done()

	_, err := tx.cat.Install(1, value.Attribute{Name: "parent", ValueType: value.ValueTypeEntityRef})
	require.NoError(t, err)
	require.NoError(t, tx.cat.Retract(1))

	byKw, err := tx.cat.LookupByKeyword("parent")
	require.NoError(t, err)
	assert.Nil(t, byKw)

	byId, err := tx.cat.Lookup(1)
	require.NoError(t, err)
	assert.Nil(t, byId)
}

func TestLookupUnknownIdReturnsNilNoError(t *testing.T) {
	tx, done := openCatalogTx(t)
	defer done()

	attr, err := tx.cat.Lookup(999)
	require.NoError(t, err)
	assert.Nil(t, attr)
}
