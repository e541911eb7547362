// Package transact implements the triple transaction engine: reading
// the latest visible value of an (entity, attribute) pair as of a
// validity, writing asserts and retracts with cardinality semantics,
// and resolving tentative entity ids to permanent ones as triples are
// written.
package transact

import (
	"encoding/json"
	"fmt"

	"github.com/cuemby/faktum/pkg/catalog"
	"github.com/cuemby/faktum/pkg/codec"
	"github.com/cuemby/faktum/pkg/log"
	"github.com/cuemby/faktum/pkg/storage"
	"github.com/cuemby/faktum/pkg/value"
)

// allocatorStateKey is a reserved TxMeta-tagged key (tx id 0, which no
// real write transaction is ever assigned) holding the allocators'
// persisted high-water marks, flushed atomically with every commit.
var allocatorStateKey = codec.EncodeTxMetaKey(value.TxId(0))

type allocatorState struct {
	LastEntityId int64
	LastAttrId   int64
	LastTxId     int64
}

// Database is a handle on one triple store: a primary store of encoded
// triples and catalog records, plus a scratch store for the relation
// algebra evaluator. Cloning a handle with NewSession shares the
// allocators and both underlying stores.
type Database struct {
	primary storage.KV
	scratch *storage.Scratch
	alloc   *allocators
}

// Open opens (creating if absent) a database rooted at dataDir, with
// its scratch store under scratchDir (the system temp directory if
// scratchDir is empty).
func Open(dataDir, scratchDir string) (*Database, error) {
	primary, err := storage.OpenBoltKV(dataDir, "store.db")
	if err != nil {
		return nil, err
	}
	scratch, err := storage.OpenScratch(scratchDir)
	if err != nil {
		primary.Close()
		return nil, err
	}
	db := &Database{primary: primary, scratch: scratch, alloc: newAllocators()}
	if err := db.loadAllocatorState(); err != nil {
		primary.Close()
		scratch.Close()
		return nil, err
	}
	log.WithComponent("transact").Info().Msg("database opened")
	return db, nil
}

func (db *Database) loadAllocatorState() error {
	tx, err := db.primary.Begin(false)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	raw, err := tx.Get(allocatorStateKey)
	if err != nil {
		return fmt.Errorf("transact: load allocator state: %w", err)
	}
	if raw == nil {
		return nil
	}
	var s allocatorState
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("transact: decode allocator state: %w", err)
	}
	db.alloc.lastEntityId.Store(s.LastEntityId)
	db.alloc.lastAttrId.Store(s.LastAttrId)
	db.alloc.lastTxId.Store(s.LastTxId)
	return nil
}

func (db *Database) saveAllocatorState(tx storage.Tx) error {
	s := allocatorState{
		LastEntityId: db.alloc.lastEntityId.Load(),
		LastAttrId:   db.alloc.lastAttrId.Load(),
		LastTxId:     db.alloc.lastTxId.Load(),
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("transact: encode allocator state: %w", err)
	}
	if err := tx.Put(allocatorStateKey, raw); err != nil {
		return fmt.Errorf("transact: flush allocator state: %w", err)
	}
	return nil
}

// NewSession clones db, sharing its allocators and both stores. Sessions
// exist so a caller can run independent transactions from multiple
// goroutines against one open database without reopening it.
func (db *Database) NewSession() *Database {
	db.alloc.sessionCount.Add(1)
	return &Database{primary: db.primary, scratch: db.scratch, alloc: db.alloc}
}

// Close releases the primary and scratch stores. It must not be called
// while any transaction or session is still in use.
func (db *Database) Close() error {
	err := db.primary.Close()
	if scratchErr := db.scratch.Close(); scratchErr != nil && err == nil {
		err = scratchErr
	}
	return err
}

// Begin starts a new Transaction. Writable transactions serialize with
// each other; read-only transactions see a consistent snapshot.
func (db *Database) Begin(writable bool) (*Transaction, error) {
	tx, err := db.primary.Begin(writable)
	if err != nil {
		return nil, fmt.Errorf("transact: begin: %w", err)
	}
	var txID value.TxId
	if writable {
		txID = db.alloc.nextTxId()
	}
	return &Transaction{
		db:       db,
		tx:       tx,
		writable: writable,
		txID:     txID,
		catalog:  catalog.New(tx),
		tempToPerm: make(map[value.EntityId]value.EntityId),
	}, nil
}

// BeginWrite starts a writable transaction and stamps its validity,
// resolved once for the whole transaction unless the caller supplies an
// explicit validity per-triple.
func (db *Database) BeginWrite() (*Transaction, error) {
	tx, err := db.Begin(true)
	if err != nil {
		return nil, err
	}
	tx.validity = value.CurrentValidity()
	return tx, nil
}
