package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes for BadgerDB storage organization.
// Using single-byte prefixes for efficiency.
const (
	prefixSnapshot = byte(0x01) // 0x01 -> JSON(Snapshot)
	prefixSeen     = byte(0x02) // 0x02 + dedupKey -> empty
)

// BadgerOptions configures the BadgerDB-backed store.
type BadgerOptions struct {
	// DataDir is the directory for storing data files.
	// Required unless InMemory is set.
	DataDir string

	// InMemory runs BadgerDB in memory-only mode.
	// Useful for testing. Data is not persisted.
	InMemory bool

	// SyncWrites forces fsync after each write.
	// Slower but more durable.
	SyncWrites bool

	// Logger for BadgerDB internal logging.
	// If nil, Badger's internal logging is disabled.
	Logger badger.Logger
}

// BadgerStore is a persistent Store on BadgerDB.
//
// Key Structure:
//   - Snapshot: 0x01 -> JSON(Snapshot)
//   - Dedup:    0x02 + key -> empty
//
// Example:
//
//	store, err := storage.NewBadgerStore(storage.BadgerOptions{DataDir: "./data"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
type BadgerStore struct {
	db     *badger.DB
	mu     sync.Mutex // serializes Close against writers
	closed bool
}

// NewBadgerStore opens (creating if needed) a Badger-backed store.
func NewBadgerStore(opts BadgerOptions) (*BadgerStore, error) {
	bopts := badger.DefaultOptions(opts.DataDir)
	bopts.InMemory = opts.InMemory
	bopts.SyncWrites = opts.SyncWrites
	if opts.InMemory {
		bopts.Dir = ""
		bopts.ValueDir = ""
	}
	if opts.Logger != nil {
		bopts.Logger = opts.Logger
	} else {
		bopts.Logger = nil
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func snapshotKey() []byte { return []byte{prefixSnapshot} }

func seenKey(key string) []byte {
	k := make([]byte, 0, len(key)+1)
	k = append(k, prefixSeen)
	return append(k, key...)
}

// SaveSnapshot overwrites the persisted aggregation snapshot.
func (b *BadgerStore) SaveSnapshot(s *Snapshot) error {
	if b.isClosed() {
		return ErrStorageClosed
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(), data)
	})
}

// LoadSnapshot returns the persisted snapshot, or ErrNotFound.
func (b *BadgerStore) LoadSnapshot() (*Snapshot, error) {
	if b.isClosed() {
		return nil, ErrStorageClosed
	}
	var s Snapshot
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey())
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &s)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return &s, nil
}

// MarkSeen records a dedup key.
func (b *BadgerStore) MarkSeen(key string) error {
	if b.isClosed() {
		return ErrStorageClosed
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(seenKey(key), nil)
	})
}

// Seen reports whether a dedup key was recorded.
func (b *BadgerStore) Seen(key string) (bool, error) {
	if b.isClosed() {
		return false, ErrStorageClosed
	}
	var found bool
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(seenKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("check dedup key: %w", err)
	}
	return found, nil
}

// Close releases the underlying database.
func (b *BadgerStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

func (b *BadgerStore) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
