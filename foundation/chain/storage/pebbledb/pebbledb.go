// Package pebbledb implements the storage contract on top of the pebble
// LSM engine. This is the engine the node runs against.
package pebbledb

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/statechain/foundation/chain/storage"
	"github.com/cockroachdb/pebble"
)

// DB represents a pebble backed implementation of the storage.Store
// interface.
type DB struct {
	db *pebble.DB
}

// Open opens or creates the database at the specified path.
func Open(dbPath string) (*DB, error) {
	db, err := pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("opening pebble db at %q: %w", dbPath, err)
	}

	return &DB{db: db}, nil
}

// Get returns the value stored under key or storage.ErrNotFound.
func (d *DB) Get(key []byte) ([]byte, error) {
	value, closer, err := d.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put stores value under key. The write is synced so at most the most
// recent block is lost on a crash.
func (d *DB) Put(key []byte, value []byte) error {
	return d.db.Set(key, value, pebble.Sync)
}

// Delete removes key from the store.
func (d *DB) Delete(key []byte) error {
	return d.db.Delete(key, pebble.Sync)
}

// ScanPrefix returns every entry whose key starts with prefix, ordered by
// key bytes ascending.
func (d *DB) ScanPrefix(prefix []byte) ([]storage.Entry, error) {
	iter, err := d.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var entries []storage.Entry
	for iter.First(); iter.Valid(); iter.Next() {
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())

		value, err := iter.ValueAndErr()
		if err != nil {
			return nil, err
		}
		v := make([]byte, len(value))
		copy(v, value)

		entries = append(entries, storage.Entry{Key: key, Value: v})
	}

	if err := iter.Error(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Close releases the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// prefixUpperBound returns the smallest key greater than every key with the
// given prefix, or nil when the prefix is all 0xff and the scan is unbounded.
func prefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)

	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}

	return nil
}
