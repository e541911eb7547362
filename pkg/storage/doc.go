/*
Package storage adapts bbolt for the two roles the engine needs: the
primary store holding every encoded triple and catalog record, and a
second, ephemeral scratch store holding relation algebra's intermediate
and result tables.

# Architecture

	┌─────────────────────── BOLTKV STORAGE ───────────────────────┐
	│                                                                │
	│  ┌──────────────────────┐       ┌───────────────────────┐   │
	│  │   Primary BoltKV      │       │    Scratch BoltKV      │   │
	│  │   <dataDir>/store.db  │       │  <tmp>/faktum-scratch- │   │
	│  │                       │       │  <uuid>/scratch.db     │   │
	│  │   single "kv" bucket  │       │   single "kv" bucket   │   │
	│  │   keyed by StorageTag │       │   keyed by TempStoreId │   │
	│  └──────────┬────────────┘       └───────────┬────────────┘   │
	│             │                                 │                │
	│             ▼                                 ▼                │
	│      Tx / Iterator                     Tx / Iterator            │
	│    (boltTx, boltIterator)            (same adapter, reused)     │
	└────────────────────────────────────────────────────────────────┘

The primary store's keyspace is partitioned entirely by the codec's
StorageTag byte prefixes (EAVT, AEVT, AVET, VAET, catalog, tx meta); it
does not use bbolt's nested buckets, because the tag prefixes already
give byte-order partitioning for free under plain lexicographic
comparison.

# Transaction model

A writable Tx maps directly onto bbolt's single in-flight writer; a
read-only Tx is a consistent MVCC snapshot as of Begin. Rollback simply
drops the underlying bbolt transaction without committing, releasing
the writer lock and leaving no partial writes.

# Scratch store lifecycle

OpenScratch creates a process-unique temp directory (named with a
google/uuid value) and opens a second BoltKV inside it.
CreateTable draws a fresh TempStoreId from a shared atomic counter;
every row a relation writes is prefixed with its table's 4-byte id, so
DropTable is one bounded range delete rather than a full scan. Close
removes the whole directory; nothing in the scratch store is meant to
outlive the database handle that created it.

# See also

  - pkg/codec for the byte encodings stored under each StorageTag
  - pkg/catalog for the attribute records stored in the primary store
  - pkg/relation for how Derived relations read and write scratch tables
*/
package storage
