package prefs

import (
	"sort"
	"sync"
)

// Store is the capability the settings core needs from a preference backend.
type Store interface {
	// Get returns the value stored under key if it exists and has the given kind.
	Get(key Key, kind Kind) (Value, bool)

	// CommitBatch writes every entry or none of them.
	CommitBatch(entries []Entry) error
}

// MemoryStore is a Store backed by a map
type MemoryStore struct {
	mu   sync.RWMutex
	data map[Key]Value
}

// NewMemoryStore creates a store pre-populated with initial (may be nil).
func NewMemoryStore(initial map[Key]Value) *MemoryStore {
	data := make(map[Key]Value, len(initial))
	for k, v := range initial {
		data[k] = v
	}
	return &MemoryStore{data: data}
}

// Get implements Store
func (s *MemoryStore) Get(key Key, kind Kind) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok || v.Kind() != kind {
		return Value{}, false
	}
	return v, true
}

// CommitBatch implements Store. The map is replaced wholesale so readers
// holding the read lock never see a half-applied batch.
func (s *MemoryStore) CommitBatch(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = applyEntries(s.data, entries)
	return nil
}

// Snapshot returns a copy of everything in the store
func (s *MemoryStore) Snapshot() map[Key]Value {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Key]Value, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// applyEntries returns a copy of base with entries applied on top.
func applyEntries(base map[Key]Value, entries []Entry) map[Key]Value {
	next := make(map[Key]Value, len(base)+len(entries))
	for k, v := range base {
		next[k] = v
	}
	for _, e := range entries {
		next[e.Key] = e.Value
	}
	return next
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[Key]Value) []Key {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
