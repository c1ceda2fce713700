package storage

import (
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore is a thread-safe in-memory Store.
//
// Use Cases:
//   - Unit testing (no disk I/O, fast cleanup)
//   - One-shot calibration tooling where persistence is irrelevant
//
// Snapshots are deep-copied through JSON on save and load so callers can
// never mutate stored state through retained pointers.
type MemoryStore struct {
	mu       sync.RWMutex
	snapshot []byte
	seen     map[string]struct{}
	closed   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

// SaveSnapshot overwrites the stored snapshot.
func (m *MemoryStore) SaveSnapshot(s *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStorageClosed
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	m.snapshot = data
	return nil
}

// LoadSnapshot returns the stored snapshot, or ErrNotFound.
func (m *MemoryStore) LoadSnapshot() (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStorageClosed
	}
	if m.snapshot == nil {
		return nil, ErrNotFound
	}
	var s Snapshot
	if err := json.Unmarshal(m.snapshot, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// MarkSeen records a dedup key.
func (m *MemoryStore) MarkSeen(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStorageClosed
	}
	m.seen[key] = struct{}{}
	return nil
}

// Seen reports whether a dedup key was recorded.
func (m *MemoryStore) Seen(key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, ErrStorageClosed
	}
	_, ok := m.seen[key]
	return ok, nil
}

// Close marks the store closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
