package system_test

import (
	"testing"

	"github.com/ardanlabs/statechain/foundation/chain/keyring"
	"github.com/ardanlabs/statechain/foundation/chain/storage/memory"
	"github.com/ardanlabs/statechain/foundation/chain/system"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestBlockNumber(t *testing.T) {
	t.Log("Given the need to track the block number.")
	{
		p := system.New(memory.New())

		n, err := p.BlockNumber()
		if err != nil || n != 0 {
			t.Fatalf("\t%s\tShould start at block 0: got %d, %v", failed, n, err)
		}
		t.Logf("\t%s\tShould start at block 0.", success)

		for want := 1; want <= 3; want++ {
			n, err := p.IncBlockNumber()
			if err != nil || int(n) != want {
				t.Fatalf("\t%s\tShould increment to %d: got %d, %v", failed, want, n, err)
			}
		}
		t.Logf("\t%s\tShould increment by one each time.", success)
	}
}

func TestNonce(t *testing.T) {
	t.Log("Given the need to track per-account nonces independently.")
	{
		p := system.New(memory.New())
		alice := keyring.Dev(keyring.Alice).AccountID()
		bob := keyring.Dev(keyring.Bob).AccountID()
		charlie := keyring.Dev(keyring.Charlie).AccountID()

		n, err := p.Nonce(alice)
		if err != nil || n != 0 {
			t.Fatalf("\t%s\tShould default to nonce 0: got %d, %v", failed, n, err)
		}
		t.Logf("\t%s\tShould default to nonce 0.", success)

		for i := 0; i < 2; i++ {
			if err := p.IncNonce(alice); err != nil {
				t.Fatalf("\t%s\tShould increment alice's nonce: %v", failed, err)
			}
		}
		if err := p.IncNonce(bob); err != nil {
			t.Fatalf("\t%s\tShould increment bob's nonce: %v", failed, err)
		}

		if n, _ := p.Nonce(alice); n != 2 {
			t.Fatalf("\t%s\tShould track alice at 2: got %d", failed, n)
		}
		if n, _ := p.Nonce(bob); n != 1 {
			t.Fatalf("\t%s\tShould track bob at 1: got %d", failed, n)
		}
		if n, _ := p.Nonce(charlie); n != 0 {
			t.Fatalf("\t%s\tShould leave charlie at 0: got %d", failed, n)
		}
		t.Logf("\t%s\tShould track each account independently.", success)
	}
}

func TestPersistence(t *testing.T) {
	t.Log("Given the need for state to survive a pallet rebuild over the same store.")
	{
		store := memory.New()
		alice := keyring.Dev(keyring.Alice).AccountID()

		p := system.New(store)
		if _, err := p.IncBlockNumber(); err != nil {
			t.Fatalf("\t%s\tShould increment the block number: %v", failed, err)
		}
		if err := p.IncNonce(alice); err != nil {
			t.Fatalf("\t%s\tShould increment the nonce: %v", failed, err)
		}

		p2 := system.New(store)
		if n, _ := p2.BlockNumber(); n != 1 {
			t.Fatalf("\t%s\tShould read back block 1: got %d", failed, n)
		}
		if n, _ := p2.Nonce(alice); n != 1 {
			t.Fatalf("\t%s\tShould read back nonce 1: got %d", failed, n)
		}
		t.Logf("\t%s\tShould read state back through a fresh pallet.", success)
	}
}
