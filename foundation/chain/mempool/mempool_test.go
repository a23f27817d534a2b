package mempool_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ardanlabs/statechain/foundation/chain/balances"
	"github.com/ardanlabs/statechain/foundation/chain/keyring"
	"github.com/ardanlabs/statechain/foundation/chain/mempool"
	"github.com/ardanlabs/statechain/foundation/chain/runtime"
	"github.com/ardanlabs/statechain/foundation/chain/types"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

var (
	alice = keyring.Dev(keyring.Alice)
	bob   = keyring.Dev(keyring.Bob)
)

func transfer(t *testing.T, from keyring.Key, nonce types.Nonce) runtime.UncheckedExtrinsic {
	t.Helper()

	call := runtime.BalancesCall{Call: balances.TransferCall{
		To:     keyring.Dev(keyring.Charlie).AccountID(),
		Amount: types.NewBalance(10),
	}}

	ext, err := runtime.NewSigned(from.PrivateKey(), nonce, call)
	if err != nil {
		t.Fatalf("signing transfer: %v", err)
	}
	return ext
}

// zeroNonces reports every account at nonce 0.
func zeroNonces(types.AccountID) (types.Nonce, error) {
	return 0, nil
}

func nonces(t *testing.T, exts []runtime.UncheckedExtrinsic) []types.Nonce {
	t.Helper()

	out := make([]types.Nonce, len(exts))
	for i, ext := range exts {
		out[i] = ext.Nonce
	}
	return out
}

func TestSubmit(t *testing.T) {
	t.Log("Given the need to bound the pool and drop duplicates.")
	{
		mp := mempool.New(2)

		if err := mp.Submit(transfer(t, alice, 0)); err != nil {
			t.Fatalf("\t%s\tShould accept the first extrinsic: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept the first extrinsic.", success)

		if err := mp.Submit(transfer(t, alice, 0)); !errors.Is(err, mempool.ErrAlreadyKnown) {
			t.Fatalf("\t%s\tShould reject a duplicate (signer, nonce): got %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a duplicate (signer, nonce).", success)

		if err := mp.Submit(transfer(t, alice, 1)); err != nil {
			t.Fatalf("\t%s\tShould accept a second nonce: %v", failed, err)
		}

		if err := mp.Submit(transfer(t, alice, 2)); !errors.Is(err, mempool.ErrMempoolFull) {
			t.Fatalf("\t%s\tShould reject at capacity: got %v", failed, err)
		}
		t.Logf("\t%s\tShould reject at capacity.", success)

		if mp.Count() != 2 || mp.PendingCount(alice.AccountID()) != 2 {
			t.Fatalf("\t%s\tShould count the pooled entries.", failed)
		}
		t.Logf("\t%s\tShould count the pooled entries.", success)
	}
}

func TestDrainOrder(t *testing.T) {
	t.Log("Given the need to drain contiguous nonce runs per signer.")
	{
		mp := mempool.New(0)

		// Out of order submission; drain must sort by nonce.
		for _, n := range []types.Nonce{2, 0, 1} {
			if err := mp.Submit(transfer(t, alice, n)); err != nil {
				t.Fatalf("\t%s\tShould pool nonce %d: %v", failed, n, err)
			}
		}

		exts, err := mp.DrainForBlock(10, zeroNonces)
		if err != nil {
			t.Fatalf("\t%s\tShould drain: %v", failed, err)
		}

		if !reflect.DeepEqual(nonces(t, exts), []types.Nonce{0, 1, 2}) {
			t.Fatalf("\t%s\tShould drain nonces in order: got %v", failed, nonces(t, exts))
		}
		t.Logf("\t%s\tShould drain nonces in ascending order.", success)

		if mp.Count() != 0 {
			t.Fatalf("\t%s\tShould empty the pool: %d left", failed, mp.Count())
		}
		t.Logf("\t%s\tShould remove drained entries from the pool.", success)
	}
}

func TestDrainNonceGap(t *testing.T) {
	t.Log("Given the need for a nonce gap to strand the suffix.")
	{
		mp := mempool.New(0)

		// Nonces 0 and 2 only; 1 is missing.
		if err := mp.Submit(transfer(t, alice, 0)); err != nil {
			t.Fatalf("\t%s\tShould pool nonce 0: %v", failed, err)
		}
		if err := mp.Submit(transfer(t, alice, 2)); err != nil {
			t.Fatalf("\t%s\tShould pool nonce 2: %v", failed, err)
		}

		exts, err := mp.DrainForBlock(10, zeroNonces)
		if err != nil {
			t.Fatalf("\t%s\tShould drain: %v", failed, err)
		}

		if !reflect.DeepEqual(nonces(t, exts), []types.Nonce{0}) {
			t.Fatalf("\t%s\tShould include only nonce 0: got %v", failed, nonces(t, exts))
		}
		t.Logf("\t%s\tShould include only the run before the gap.", success)

		if mp.Count() != 1 || mp.PendingCount(alice.AccountID()) != 1 {
			t.Fatalf("\t%s\tShould keep nonce 2 pooled.", failed)
		}
		t.Logf("\t%s\tShould keep the stranded entry pooled.", success)
	}
}

func TestDrainStaleNonce(t *testing.T) {
	t.Log("Given the need for a stale nonce to be left out of the block.")
	{
		mp := mempool.New(0)
		if err := mp.Submit(transfer(t, alice, 0)); err != nil {
			t.Fatalf("\t%s\tShould pool nonce 0: %v", failed, err)
		}

		// The runtime nonce has already moved past 0.
		ahead := func(types.AccountID) (types.Nonce, error) { return 1, nil }
		exts, err := mp.DrainForBlock(10, ahead)
		if err != nil {
			t.Fatalf("\t%s\tShould drain: %v", failed, err)
		}
		if len(exts) != 0 {
			t.Fatalf("\t%s\tShould select nothing: got %d", failed, len(exts))
		}
		t.Logf("\t%s\tShould select nothing for a stale nonce.", success)
	}
}

func TestDrainDeterministicAcrossSigners(t *testing.T) {
	t.Log("Given the need for two pools with the same snapshot to drain identically.")
	{
		build := func(order []int) *mempool.Mempool {
			mp := mempool.New(0)
			exts := []runtime.UncheckedExtrinsic{
				transfer(t, alice, 0),
				transfer(t, bob, 0),
				transfer(t, alice, 1),
			}
			for _, i := range order {
				if err := mp.Submit(exts[i]); err != nil {
					t.Fatalf("\t%s\tShould pool extrinsic %d: %v", failed, i, err)
				}
			}
			return mp
		}

		a, err := build([]int{0, 1, 2}).DrainForBlock(10, zeroNonces)
		if err != nil {
			t.Fatalf("\t%s\tShould drain: %v", failed, err)
		}
		b, err := build([]int{2, 1, 0}).DrainForBlock(10, zeroNonces)
		if err != nil {
			t.Fatalf("\t%s\tShould drain: %v", failed, err)
		}

		if !reflect.DeepEqual(a, b) {
			t.Fatalf("\t%s\tShould drain identically regardless of insertion order.", failed)
		}
		t.Logf("\t%s\tShould drain identically regardless of insertion order.", success)
	}
}

func TestDrainLimit(t *testing.T) {
	t.Log("Given the need to respect the block limit.")
	{
		mp := mempool.New(0)
		for n := types.Nonce(0); n < 5; n++ {
			if err := mp.Submit(transfer(t, alice, n)); err != nil {
				t.Fatalf("\t%s\tShould pool nonce %d: %v", failed, n, err)
			}
		}

		exts, err := mp.DrainForBlock(3, zeroNonces)
		if err != nil {
			t.Fatalf("\t%s\tShould drain: %v", failed, err)
		}
		if !reflect.DeepEqual(nonces(t, exts), []types.Nonce{0, 1, 2}) {
			t.Fatalf("\t%s\tShould take only 3: got %v", failed, nonces(t, exts))
		}
		if mp.Count() != 2 {
			t.Fatalf("\t%s\tShould keep the rest pooled: %d", failed, mp.Count())
		}
		t.Logf("\t%s\tShould take the limit and keep the rest pooled.", success)
	}
}

func TestRetain(t *testing.T) {
	t.Log("Given the need to evict extrinsics included in a peer block.")
	{
		mp := mempool.New(0)
		if err := mp.Submit(transfer(t, alice, 0)); err != nil {
			t.Fatalf("\t%s\tShould pool alice 0: %v", failed, err)
		}
		if err := mp.Submit(transfer(t, alice, 1)); err != nil {
			t.Fatalf("\t%s\tShould pool alice 1: %v", failed, err)
		}
		if err := mp.Submit(transfer(t, bob, 0)); err != nil {
			t.Fatalf("\t%s\tShould pool bob 0: %v", failed, err)
		}

		mp.Retain([]mempool.Key{
			{Signer: alice.AccountID(), Nonce: 0},
			{Signer: bob.AccountID(), Nonce: 0},
		})

		if mp.Count() != 1 || mp.PendingCount(alice.AccountID()) != 1 || mp.PendingCount(bob.AccountID()) != 0 {
			t.Fatalf("\t%s\tShould keep only alice's nonce 1.", failed)
		}
		t.Logf("\t%s\tShould evict exactly the included pairs.", success)

		// The evicted slot is free for a resubmission.
		if err := mp.Submit(transfer(t, bob, 0)); err != nil {
			t.Fatalf("\t%s\tShould accept a resubmission after eviction: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept a resubmission after eviction.", success)
	}
}
