// Package memory implements the storage contract with an in-process map.
// Unit tests use it to observe independent zero-initialised stores without
// touching disk.
package memory

import (
	"bytes"
	"sort"
	"sync"

	"github.com/ardanlabs/statechain/foundation/chain/storage"
)

// Memory represents an in-memory implementation of the storage.Store
// interface.
type Memory struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// New constructs an empty in-memory store.
func New() *Memory {
	return &Memory{
		m: make(map[string][]byte),
	}
}

// Get returns the value stored under key or storage.ErrNotFound.
func (mem *Memory) Get(key []byte) ([]byte, error) {
	mem.mu.RLock()
	defer mem.mu.RUnlock()

	v, exists := mem.m[string(key)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put stores value under key, replacing any previous value.
func (mem *Memory) Put(key []byte, value []byte) error {
	mem.mu.Lock()
	defer mem.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	mem.m[string(key)] = v

	return nil
}

// Delete removes key from the store. Deleting an absent key is not an error.
func (mem *Memory) Delete(key []byte) error {
	mem.mu.Lock()
	defer mem.mu.Unlock()

	delete(mem.m, string(key))
	return nil
}

// ScanPrefix returns every entry whose key starts with prefix, ordered by
// key bytes ascending.
func (mem *Memory) ScanPrefix(prefix []byte) ([]storage.Entry, error) {
	mem.mu.RLock()
	defer mem.mu.RUnlock()

	var entries []storage.Entry
	for k, v := range mem.m {
		if bytes.HasPrefix([]byte(k), prefix) {
			key := []byte(k)
			value := make([]byte, len(v))
			copy(value, v)
			entries = append(entries, storage.Entry{Key: key, Value: value})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Key, entries[j].Key) < 0
	})

	return entries, nil
}

// Close implements the storage contract. There is nothing to release.
func (mem *Memory) Close() error {
	return nil
}
