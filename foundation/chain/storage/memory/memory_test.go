package memory_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ardanlabs/statechain/foundation/chain/storage"
	"github.com/ardanlabs/statechain/foundation/chain/storage/memory"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestCRUD(t *testing.T) {
	t.Log("Given the need for basic get, put, and delete behavior.")
	{
		mem := memory.New()

		if _, err := mem.Get([]byte("missing")); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("\t%s\tShould report a missing key: got %v", failed, err)
		}
		t.Logf("\t%s\tShould report a missing key.", success)

		if err := mem.Put([]byte("k"), []byte("v1")); err != nil {
			t.Fatalf("\t%s\tShould store a value: %v", failed, err)
		}
		if err := mem.Put([]byte("k"), []byte("v2")); err != nil {
			t.Fatalf("\t%s\tShould replace a value: %v", failed, err)
		}

		v, err := mem.Get([]byte("k"))
		if err != nil || !bytes.Equal(v, []byte("v2")) {
			t.Fatalf("\t%s\tShould read the latest value: got %q, %v", failed, v, err)
		}
		t.Logf("\t%s\tShould read the latest value.", success)

		if err := mem.Delete([]byte("k")); err != nil {
			t.Fatalf("\t%s\tShould delete the key: %v", failed, err)
		}
		if _, err := mem.Get([]byte("k")); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("\t%s\tShould report the deleted key as missing: got %v", failed, err)
		}
		t.Logf("\t%s\tShould delete the key.", success)
	}
}

func TestScanPrefix(t *testing.T) {
	t.Log("Given the need for ordered prefix scans.")
	{
		mem := memory.New()

		pairs := map[string]string{
			"poe:claim:bbb":  "2",
			"poe:claim:aaa":  "1",
			"poe:claim:ccc":  "3",
			"balances:other": "x",
		}
		for k, v := range pairs {
			if err := mem.Put([]byte(k), []byte(v)); err != nil {
				t.Fatalf("\t%s\tShould store %q: %v", failed, k, err)
			}
		}

		entries, err := mem.ScanPrefix([]byte("poe:claim:"))
		if err != nil {
			t.Fatalf("\t%s\tShould scan the prefix: %v", failed, err)
		}
		if len(entries) != 3 {
			t.Fatalf("\t%s\tShould match only the prefix: got %d", failed, len(entries))
		}
		t.Logf("\t%s\tShould match only the prefix.", success)

		want := []string{"poe:claim:aaa", "poe:claim:bbb", "poe:claim:ccc"}
		for i, ent := range entries {
			if string(ent.Key) != want[i] {
				t.Fatalf("\t%s\tShould order keys ascending: got %q at %d", failed, ent.Key, i)
			}
		}
		t.Logf("\t%s\tShould order keys ascending.", success)
	}
}

func TestIsolation(t *testing.T) {
	t.Log("Given the need for returned values to be copies.")
	{
		mem := memory.New()
		if err := mem.Put([]byte("k"), []byte("value")); err != nil {
			t.Fatalf("\t%s\tShould store the value: %v", failed, err)
		}

		v, err := mem.Get([]byte("k"))
		if err != nil {
			t.Fatalf("\t%s\tShould read the value: %v", failed, err)
		}
		v[0] = 'X'

		again, err := mem.Get([]byte("k"))
		if err != nil || !bytes.Equal(again, []byte("value")) {
			t.Fatalf("\t%s\tShould not observe caller mutations: got %q", failed, again)
		}
		t.Logf("\t%s\tShould not observe caller mutations.", success)
	}
}
