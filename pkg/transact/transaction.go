package transact

import (
	"fmt"

	"github.com/cuemby/faktum/pkg/catalog"
	"github.com/cuemby/faktum/pkg/log"
	"github.com/cuemby/faktum/pkg/metrics"
	"github.com/cuemby/faktum/pkg/storage"
	"github.com/cuemby/faktum/pkg/value"
)

// Transaction is a single transaction over a Database's primary store.
// It owns a snapshot (read-only) or a write buffer (writable), a
// per-transaction attribute catalog cache, and, for writable
// transactions, the validity stamp shared by every triple it writes and
// the temp-to-permanent entity id table built up by TxTriples.
type Transaction struct {
	db       *Database
	tx       storage.Tx
	writable bool
	txID     value.TxId
	validity value.Validity

	catalog    *catalog.Catalog
	tempToPerm map[value.EntityId]value.EntityId

	triplesWritten   int
	triplesRetracted int
}

// ID returns the transaction's assigned TxId. It is the zero value for
// read-only transactions, which are never assigned one.
func (t *Transaction) ID() value.TxId { return t.txID }

// ResolveEntity maps a tentative entity id to the permanent id it was
// assigned during this transaction's TxTriples calls. Permanent ids map
// to themselves.
func (t *Transaction) ResolveEntity(e value.EntityId) (value.EntityId, error) {
	if e.IsPermanent() {
		return e, nil
	}
	perm, ok := t.tempToPerm[e]
	if !ok {
		return 0, &SchemaError{Kind: UnresolvedTentativeId, Detail: e.String()}
	}
	return perm, nil
}

// Commit writes the transaction metadata record and the allocators'
// flushed high-water marks atomically with the rest of the
// transaction's writes, then commits the underlying storage
// transaction. dryRun performs every check and write against the
// transaction's own buffer but rolls back instead of committing,
// supporting a caller that wants to validate a write without applying
// it (see explain_script in the original engine).
func (t *Transaction) Commit(comment string, dryRun bool) error {
	if !t.writable {
		return &InvariantError{Detail: "commit called on a read-only transaction"}
	}
	timer := metrics.NewTimer()
	if err := t.writeTxMeta(comment); err != nil {
		t.Rollback()
		metrics.TransactionsTotal.WithLabelValues("error").Inc()
		return err
	}
	if err := t.db.saveAllocatorState(t.tx); err != nil {
		t.Rollback()
		metrics.TransactionsTotal.WithLabelValues("error").Inc()
		return err
	}
	if dryRun {
		t.Rollback()
		metrics.TransactionsTotal.WithLabelValues("dry_run").Inc()
		return nil
	}
	if err := t.tx.Commit(); err != nil {
		metrics.TransactionsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("transact: commit: %w", err)
	}
	timer.ObserveDuration(metrics.TransactionDuration)
	metrics.TransactionsTotal.WithLabelValues("ok").Inc()
	metrics.TriplesWrittenTotal.Add(float64(t.triplesWritten))
	metrics.TriplesRetractedTotal.Add(float64(t.triplesRetracted))
	log.WithTxID(int64(t.txID)).Info().
		Int("triples_written", t.triplesWritten).
		Int("triples_retracted", t.triplesRetracted).
		Msg("transaction committed")
	return nil
}

func (t *Transaction) writeTxMeta(comment string) error {
	rec := txMetaRecord{Id: t.txID, Validity: t.validity, Comment: comment}
	raw, err := encodeTxMeta(rec)
	if err != nil {
		return err
	}
	if err := t.tx.Put(txMetaKey(t.txID), raw); err != nil {
		return fmt.Errorf("transact: write tx meta: %w", err)
	}
	return nil
}

// Rollback releases the transaction's storage resources without
// applying any of its writes.
func (t *Transaction) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("transact: rollback: %w", err)
	}
	return nil
}

// Catalog returns the transaction's attribute catalog view.
func (t *Transaction) Catalog() *catalog.Catalog { return t.catalog }

// Storage exposes the underlying storage transaction, used by the
// relation algebra's TripleScan to read the triple store directly
// within this transaction's snapshot.
func (t *Transaction) Storage() storage.Tx { return t.tx }

// Scratch exposes the database's scratch store, used by the relation
// algebra to materialize Derived relations.
func (t *Transaction) Scratch() *storage.Scratch { return t.db.scratch }
