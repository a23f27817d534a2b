package signature_test

import (
	"testing"

	"github.com/ardanlabs/statechain/foundation/chain/keyring"
	"github.com/ardanlabs/statechain/foundation/chain/signature"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestSignVerify(t *testing.T) {
	t.Log("Given the need to sign and verify a message.")
	{
		alice := keyring.Dev(keyring.Alice)
		msg := []byte("the quick brown fox")

		sig := signature.Sign(alice.PrivateKey(), msg)
		if err := signature.Verify(alice.AccountID(), msg, sig); err != nil {
			t.Fatalf("\t%s\tShould verify a fresh signature: %v", failed, err)
		}
		t.Logf("\t%s\tShould verify a fresh signature.", success)

		tampered := make([]byte, len(msg))
		copy(tampered, msg)
		tampered[0] ^= 0x01
		if err := signature.Verify(alice.AccountID(), tampered, sig); err == nil {
			t.Fatalf("\t%s\tShould reject a tampered message.", failed)
		}
		t.Logf("\t%s\tShould reject a tampered message.", success)

		bob := keyring.Dev(keyring.Bob)
		if err := signature.Verify(bob.AccountID(), msg, sig); err == nil {
			t.Fatalf("\t%s\tShould reject the wrong public key.", failed)
		}
		t.Logf("\t%s\tShould reject the wrong public key.", success)

		badSig := sig
		badSig[10] ^= 0x01
		if err := signature.Verify(alice.AccountID(), msg, badSig); err == nil {
			t.Fatalf("\t%s\tShould reject a flipped signature bit.", failed)
		}
		t.Logf("\t%s\tShould reject a flipped signature bit.", success)
	}
}

func TestVerifyBatch(t *testing.T) {
	t.Log("Given the need to verify a batch with per-item results.")
	{
		alice := keyring.Dev(keyring.Alice)

		items := make([]signature.BatchItem, 4)
		for i := range items {
			msg := []byte{byte(i), 0xaa, 0xbb}
			items[i] = signature.BatchItem{
				Pub:     alice.AccountID(),
				Message: msg,
				Sig:     signature.Sign(alice.PrivateKey(), msg),
			}
		}

		// Tamper with index 2 only.
		items[2].Message = []byte("something else")

		results := signature.VerifyBatch(items)
		if len(results) != 4 {
			t.Fatalf("\t%s\tShould return one result per item: got %d", failed, len(results))
		}
		t.Logf("\t%s\tShould return one result per item.", success)

		for _, i := range []int{0, 1, 3} {
			if results[i] != nil {
				t.Fatalf("\t%s\tShould accept valid item %d: %v", failed, i, results[i])
			}
		}
		t.Logf("\t%s\tShould accept the valid items.", success)

		if results[2] == nil {
			t.Fatalf("\t%s\tShould reject only the tampered item.", failed)
		}
		t.Logf("\t%s\tShould reject only the tampered item.", success)
	}
}

func TestVerifyBatchEmpty(t *testing.T) {
	t.Log("Given the need to handle an empty batch.")
	{
		if results := signature.VerifyBatch(nil); len(results) != 0 {
			t.Fatalf("\t%s\tShould return an empty result set: got %d", failed, len(results))
		}
		t.Logf("\t%s\tShould return an empty result set.", success)
	}
}
