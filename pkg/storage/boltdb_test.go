package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestKV(t *testing.T) *BoltKV {
	t.Helper()
	kv, err := OpenBoltKV(t.TempDir(), "test.db")
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv
}

func putAll(t *testing.T, kv *BoltKV, pairs map[string]string) {
	t.Helper()
	tx, err := kv.Begin(true)
	require.NoError(t, err)
	for k, v := range pairs {
		require.NoError(t, tx.Put([]byte(k), []byte(v)))
	}
	require.NoError(t, tx.Commit())
}

func TestPutGetRoundTrips(t *testing.T) {
	kv := openTestKV(t)
	putAll(t, kv, map[string]string{"a": "1"})

	tx, err := kv.Begin(false)
	require.NoError(t, err)
	defer tx.Rollback()

	v, err := tx.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, "1", string(v))

	missing, err := tx.Get([]byte("zzz"))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeleteRemovesKey(t *testing.T) {
	kv := openTestKV(t)
	putAll(t, kv, map[string]string{"a": "1"})

	tx, err := kv.Begin(true)
	require.NoError(t, err)
	require.NoError(t, tx.Delete([]byte("a")))
	require.NoError(t, tx.Commit())

	tx2, err := kv.Begin(false)
	require.NoError(t, err)
	defer tx2.Rollback()
	v, err := tx2.Get([]byte("a"))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestIteratorForwardRangeIsBounded(t *testing.T) {
	kv := openTestKV(t)
	putAll(t, kv, map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"})

	tx, err := kv.Begin(false)
	require.NoError(t, err)
	defer tx.Rollback()

	it, err := tx.Iterator([]byte("b"), []byte("d"), true)
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for ok := it.First(); ok; ok = it.Next() {
		keys = append(keys, string(it.Key()))
	}
	assert.Equal(t, []string{"b", "c"}, keys)
}

func TestIteratorBackwardRangeIsBounded(t *testing.T) {
	kv := openTestKV(t)
	putAll(t, kv, map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"})

	tx, err := kv.Begin(false)
	require.NoError(t, err)
	defer tx.Rollback()

	it, err := tx.Iterator([]byte("b"), []byte("d"), false)
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for ok := it.First(); ok; ok = it.Next() {
		keys = append(keys, string(it.Key()))
	}
	assert.Equal(t, []string{"c", "b"}, keys)
}

func TestIteratorUnboundedRangeCoversAll(t *testing.T) {
	kv := openTestKV(t)
	putAll(t, kv, map[string]string{"a": "1", "b": "2", "c": "3"})

	tx, err := kv.Begin(false)
	require.NoError(t, err)
	defer tx.Rollback()

	it, err := tx.Iterator(nil, nil, true)
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for ok := it.First(); ok; ok = it.Next() {
		keys = append(keys, string(it.Key()))
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestIteratorSeekPositionsAtOrAfterTarget(t *testing.T) {
	kv := openTestKV(t)
	putAll(t, kv, map[string]string{"a": "1", "c": "3", "e": "5"})

	tx, err := kv.Begin(false)
	require.NoError(t, err)
	defer tx.Rollback()

	it, err := tx.Iterator(nil, nil, true)
	require.NoError(t, err)
	defer it.Close()

	require.True(t, it.Seek([]byte("b")))
	assert.Equal(t, "c", string(it.Key()))
}

func TestRollbackDiscardsWrites(t *testing.T) {
	kv := openTestKV(t)

	tx, err := kv.Begin(true)
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("a"), []byte("1")))
	require.NoError(t, tx.Rollback())

	tx2, err := kv.Begin(false)
	require.NoError(t, err)
	defer tx2.Rollback()
	v, err := tx2.Get([]byte("a"))
	require.NoError(t, err)
	assert.Nil(t, v)
}
