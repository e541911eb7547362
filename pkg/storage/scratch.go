package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"
)

// TempStoreId identifies one ephemeral relation's rows within the
// shared scratch store. Every key a relation writes is prefixed with
// its TempStoreId's 4-byte big-endian encoding, so distinct relations
// never collide and a whole relation can be dropped with one range
// delete.
type TempStoreId uint32

// Scratch is the ephemeral ordered key-value store backing relation
// algebra's Derived relations: rule results, magic supplementary
// predicates, and semi-naive delta tables. It is created fresh in a
// process-unique temp directory when the database opens and destroyed
// whole when the database closes.
type Scratch struct {
	kv      *BoltKV
	dir     string
	counter atomic.Uint32
}

// OpenScratch creates a new scratch store under a process-unique
// subdirectory of baseDir (the system temp directory if empty).
func OpenScratch(baseDir string) (*Scratch, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	dir := filepath.Join(baseDir, "faktum-scratch-"+uuid.New().String())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("storage: create scratch dir: %w", err)
	}
	kv, err := OpenBoltKV(dir, "scratch.db")
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return &Scratch{kv: kv, dir: dir}, nil
}

// CreateTable draws a fresh TempStoreId from the shared counter. The
// caller is responsible for calling DropTable when the relation it
// backs is no longer needed.
func (s *Scratch) CreateTable() TempStoreId {
	return TempStoreId(s.counter.Add(1))
}

// DropTable deletes every row written under id's prefix.
func (s *Scratch) DropTable(id TempStoreId) error {
	tx, err := s.kv.Begin(true)
	if err != nil {
		return err
	}
	prefix := EncodeTablePrefix(id)
	upper := prefixUpperBound(prefix)
	it, err := tx.Iterator(prefix, upper, true)
	if err != nil {
		tx.Rollback()
		return err
	}
	var keys [][]byte
	for ok := it.First(); ok; ok = it.Next() {
		keys = append(keys, append([]byte(nil), it.Key()...))
	}
	it.Close()
	for _, k := range keys {
		if err := tx.Delete(k); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Begin starts a transaction against the scratch store.
func (s *Scratch) Begin(writable bool) (Tx, error) {
	return s.kv.Begin(writable)
}

// Close destroys the scratch store and removes its backing directory.
func (s *Scratch) Close() error {
	err := s.kv.Close()
	if rmErr := os.RemoveAll(s.dir); rmErr != nil && err == nil {
		err = fmt.Errorf("storage: remove scratch dir: %w", rmErr)
	}
	return err
}

// EncodeTablePrefix returns the key prefix every row of table id is
// stored under.
func EncodeTablePrefix(id TempStoreId) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(id))
	return buf
}

// EncodeTableKey appends a row's own sort key to its table's prefix.
func EncodeTableKey(id TempStoreId, rowKey []byte) []byte {
	return append(EncodeTablePrefix(id), rowKey...)
}

// prefixUpperBound returns the smallest key that is strictly greater
// than every key beginning with prefix, or nil if prefix is all 0xFF
// bytes (meaning the range is unbounded above).
func prefixUpperBound(prefix []byte) []byte {
	upper := append([]byte(nil), prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] != 0xFF {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}
