package pebbledb_test

import (
	"testing"

	"github.com/ardanlabs/statechain/foundation/chain/storage"
	"github.com/ardanlabs/statechain/foundation/chain/storage/pebbledb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *pebbledb.DB {
	t.Helper()

	db, err := pebbledb.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestCRUD(t *testing.T) {
	db := newStore(t)

	_, err := db.Get([]byte("missing"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, db.Put([]byte("key1"), []byte("value1")))
	require.NoError(t, db.Put([]byte("key1"), []byte("value2")))

	v, err := db.Get([]byte("key1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value2"), v)

	require.NoError(t, db.Delete([]byte("key1")))
	_, err = db.Get([]byte("key1"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Deleting an absent key is not an error.
	assert.NoError(t, db.Delete([]byte("key1")))
}

func TestScanPrefix(t *testing.T) {
	db := newStore(t)

	pairs := map[string]string{
		"system:nonce:b":      "2",
		"system:nonce:a":      "1",
		"system:nonce:c":      "3",
		"system:block_number": "x",
		"balances:balance:a":  "y",
	}
	for k, v := range pairs {
		require.NoError(t, db.Put([]byte(k), []byte(v)))
	}

	entries, err := db.ScanPrefix([]byte("system:nonce:"))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	want := []string{"system:nonce:a", "system:nonce:b", "system:nonce:c"}
	for i, ent := range entries {
		assert.Equal(t, want[i], string(ent.Key))
	}

	entries, err = db.ScanPrefix([]byte("nomatch:"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()

	db, err := pebbledb.Open(dir)
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("key"), []byte("survives")))
	require.NoError(t, db.Close())

	db, err = pebbledb.Open(dir)
	require.NoError(t, err)
	defer db.Close()

	v, err := db.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("survives"), v)
}

func TestScanPrefixAllFF(t *testing.T) {
	db := newStore(t)

	require.NoError(t, db.Put([]byte{0xff, 0x01}, []byte("a")))
	require.NoError(t, db.Put([]byte{0xfe}, []byte("b")))

	entries, err := db.ScanPrefix([]byte{0xff})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []byte{0xff, 0x01}, entries[0].Key)
}
