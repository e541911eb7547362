package storage

import (
	"bytes"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

// kvBucket is the single bucket every BoltKV uses. Keyspace partitioning
// is handled entirely by the codec's StorageTag prefixes, so there is no
// need for bbolt's own nested-bucket hierarchy.
var kvBucket = []byte("kv")

// BoltKV implements KV over a single bbolt database file.
type BoltKV struct {
	db *bolt.DB
}

// OpenBoltKV opens (creating if absent) a bbolt database at path,
// dataDir/name, ensuring the shared bucket exists.
func OpenBoltKV(dataDir, name string) (*BoltKV, error) {
	db, err := bolt.Open(filepath.Join(dataDir, name), 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", name, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(kvBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: init bucket: %w", err)
	}
	return &BoltKV{db: db}, nil
}

func (k *BoltKV) Begin(writable bool) (Tx, error) {
	tx, err := k.db.Begin(writable)
	if err != nil {
		return nil, fmt.Errorf("storage: begin transaction: %w", err)
	}
	return &boltTx{tx: tx, bucket: tx.Bucket(kvBucket)}, nil
}

func (k *BoltKV) Close() error {
	if err := k.db.Close(); err != nil {
		return fmt.Errorf("storage: close: %w", err)
	}
	return nil
}

type boltTx struct {
	tx     *bolt.Tx
	bucket *bolt.Bucket
}

func (t *boltTx) Get(key []byte) ([]byte, error) {
	v := t.bucket.Get(key)
	if v == nil {
		return nil, nil
	}
	// bbolt's returned slice is only valid for the life of the
	// transaction; copy it so callers can hold onto it past Commit.
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (t *boltTx) Put(key, value []byte) error {
	if err := t.bucket.Put(key, value); err != nil {
		return fmt.Errorf("storage: put: %w", err)
	}
	return nil
}

func (t *boltTx) Delete(key []byte) error {
	if err := t.bucket.Delete(key); err != nil {
		return fmt.Errorf("storage: delete: %w", err)
	}
	return nil
}

func (t *boltTx) Iterator(lower, upper []byte, forward bool) (Iterator, error) {
	return &boltIterator{
		cursor:  t.bucket.Cursor(),
		lower:   lower,
		upper:   upper,
		forward: forward,
	}, nil
}

func (t *boltTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit: %w", err)
	}
	return nil
}

func (t *boltTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("storage: rollback: %w", err)
	}
	return nil
}

// boltIterator adapts bbolt's Cursor, which only walks forward, into a
// bounded, bidirectional Iterator.
type boltIterator struct {
	cursor       *bolt.Cursor
	lower, upper []byte
	forward      bool
	key, value   []byte
	valid        bool
}

func (it *boltIterator) First() bool {
	var k, v []byte
	if it.forward {
		if it.lower != nil {
			k, v = it.cursor.Seek(it.lower)
		} else {
			k, v = it.cursor.First()
		}
	} else {
		if it.upper != nil {
			k, v = it.cursor.Seek(it.upper)
			if k == nil {
				k, v = it.cursor.Last()
			} else if bytes.Compare(k, it.upper) >= 0 {
				k, v = it.cursor.Prev()
			}
		} else {
			k, v = it.cursor.Last()
		}
	}
	return it.setPosition(k, v)
}

func (it *boltIterator) Seek(target []byte) bool {
	if it.forward {
		k, v := it.cursor.Seek(target)
		return it.setPosition(k, v)
	}
	k, v := it.cursor.Seek(target)
	if k == nil {
		k, v = it.cursor.Last()
	} else if !bytes.Equal(k, target) {
		k, v = it.cursor.Prev()
	}
	return it.setPosition(k, v)
}

func (it *boltIterator) Next() bool {
	if !it.valid {
		return false
	}
	var k, v []byte
	if it.forward {
		k, v = it.cursor.Next()
	} else {
		k, v = it.cursor.Prev()
	}
	return it.setPosition(k, v)
}

func (it *boltIterator) setPosition(k, v []byte) bool {
	if k == nil || !it.inBounds(k) {
		it.valid = false
		it.key, it.value = nil, nil
		return false
	}
	it.key = append([]byte(nil), k...)
	it.value = append([]byte(nil), v...)
	it.valid = true
	return true
}

func (it *boltIterator) inBounds(k []byte) bool {
	if it.lower != nil && bytes.Compare(k, it.lower) < 0 {
		return false
	}
	if it.upper != nil && bytes.Compare(k, it.upper) >= 0 {
		return false
	}
	return true
}

func (it *boltIterator) Valid() bool    { return it.valid }
func (it *boltIterator) Key() []byte    { return it.key }
func (it *boltIterator) Value() []byte  { return it.value }
func (it *boltIterator) Close() error   { return nil }
