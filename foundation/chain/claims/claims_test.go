package claims_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/statechain/foundation/chain/claims"
	"github.com/ardanlabs/statechain/foundation/chain/keyring"
	"github.com/ardanlabs/statechain/foundation/chain/storage/memory"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

var (
	alice = keyring.Dev(keyring.Alice).AccountID()
	bob   = keyring.Dev(keyring.Bob).AccountID()
)

func TestFirstClaimantWins(t *testing.T) {
	t.Log("Given the need for the first claimant to win.")
	{
		p := claims.New(memory.New())

		if _, claimed, err := p.Owner("doc"); err != nil || claimed {
			t.Fatalf("\t%s\tShould start with no claim: %v", failed, err)
		}
		t.Logf("\t%s\tShould start with no claim.", success)

		if err := p.CreateClaim(alice, "doc"); err != nil {
			t.Fatalf("\t%s\tShould record alice's claim: %v", failed, err)
		}
		owner, claimed, err := p.Owner("doc")
		if err != nil || !claimed || owner != alice {
			t.Fatalf("\t%s\tShould show alice as the owner.", failed)
		}
		t.Logf("\t%s\tShould record alice's claim.", success)

		if err := p.CreateClaim(bob, "doc"); !errors.Is(err, claims.ErrAlreadyClaimed) {
			t.Fatalf("\t%s\tShould reject bob's duplicate claim: got %v", failed, err)
		}
		if owner, _, _ := p.Owner("doc"); owner != alice {
			t.Fatalf("\t%s\tShould leave alice as the owner.", failed)
		}
		t.Logf("\t%s\tShould reject a duplicate claim and keep the original owner.", success)
	}
}

func TestRevoke(t *testing.T) {
	t.Log("Given the need for only the owner to revoke, freeing the content.")
	{
		p := claims.New(memory.New())

		if err := p.RevokeClaim(alice, "ghost"); !errors.Is(err, claims.ErrNotClaimed) {
			t.Fatalf("\t%s\tShould reject revoking an absent claim: got %v", failed, err)
		}
		t.Logf("\t%s\tShould reject revoking an absent claim.", success)

		if err := p.CreateClaim(alice, "doc"); err != nil {
			t.Fatalf("\t%s\tShould record alice's claim: %v", failed, err)
		}

		if err := p.RevokeClaim(bob, "doc"); !errors.Is(err, claims.ErrNotOwner) {
			t.Fatalf("\t%s\tShould reject bob revoking alice's claim: got %v", failed, err)
		}
		if owner, _, _ := p.Owner("doc"); owner != alice {
			t.Fatalf("\t%s\tShould leave the claim with alice.", failed)
		}
		t.Logf("\t%s\tShould reject a revoke by a non-owner.", success)

		if err := p.RevokeClaim(alice, "doc"); err != nil {
			t.Fatalf("\t%s\tShould let alice revoke: %v", failed, err)
		}
		if _, claimed, _ := p.Owner("doc"); claimed {
			t.Fatalf("\t%s\tShould delete the claim on revoke.", failed)
		}
		t.Logf("\t%s\tShould delete the claim on revoke.", success)

		if err := p.CreateClaim(bob, "doc"); err != nil {
			t.Fatalf("\t%s\tShould let bob claim the freed content: %v", failed, err)
		}
		if owner, _, _ := p.Owner("doc"); owner != bob {
			t.Fatalf("\t%s\tShould show bob as the new owner.", failed)
		}
		t.Logf("\t%s\tShould let the freed content be claimed again.", success)
	}
}

func TestIndependentClaims(t *testing.T) {
	t.Log("Given the need for claims to be independent of each other.")
	{
		p := claims.New(memory.New())

		if err := p.CreateClaim(alice, "doc1"); err != nil {
			t.Fatalf("\t%s\tShould record doc1: %v", failed, err)
		}
		if err := p.CreateClaim(alice, "doc2"); err != nil {
			t.Fatalf("\t%s\tShould record doc2: %v", failed, err)
		}
		if err := p.RevokeClaim(alice, "doc1"); err != nil {
			t.Fatalf("\t%s\tShould revoke doc1: %v", failed, err)
		}

		if _, claimed, _ := p.Owner("doc1"); claimed {
			t.Fatalf("\t%s\tShould have removed doc1.", failed)
		}
		if owner, claimed, _ := p.Owner("doc2"); !claimed || owner != alice {
			t.Fatalf("\t%s\tShould keep doc2 with alice.", failed)
		}
		t.Logf("\t%s\tShould revoke one claim without touching another.", success)

		all, err := p.All()
		if err != nil || len(all) != 1 || all[0].Content != "doc2" || all[0].Owner != alice {
			t.Fatalf("\t%s\tShould list the remaining claim: %v", failed, err)
		}
		t.Logf("\t%s\tShould list the remaining claim.", success)
	}
}

func TestDispatch(t *testing.T) {
	t.Log("Given the need to dispatch claim calls.")
	{
		p := claims.New(memory.New())

		if err := p.Dispatch(alice, claims.CreateClaimCall{Content: "doc"}); err != nil {
			t.Fatalf("\t%s\tShould dispatch a create: %v", failed, err)
		}
		if err := p.Dispatch(alice, claims.RevokeClaimCall{Content: "doc"}); err != nil {
			t.Fatalf("\t%s\tShould dispatch a revoke: %v", failed, err)
		}
		if _, claimed, _ := p.Owner("doc"); claimed {
			t.Fatalf("\t%s\tShould end with no claim.", failed)
		}
		t.Logf("\t%s\tShould route both calls to the pallet methods.", success)
	}
}
