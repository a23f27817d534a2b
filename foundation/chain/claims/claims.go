// Package claims implements the proof-of-existence pallet: a first-claimant
// registry mapping opaque content strings to their owning account.
package claims

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ardanlabs/statechain/foundation/chain/storage"
	"github.com/ardanlabs/statechain/foundation/chain/types"
)

var (
	// ErrAlreadyClaimed is returned when the content already has an owner.
	ErrAlreadyClaimed = errors.New("content is already claimed")

	// ErrNotClaimed is returned when revoking content nobody owns.
	ErrNotClaimed = errors.New("content is not claimed")

	// ErrNotOwner is returned when someone other than the owner revokes.
	ErrNotOwner = errors.New("caller does not own the claim")
)

var prefixClaim = []byte("poe:claim:")

// Claim is a content string and its owner, as returned by All.
type Claim struct {
	Content string
	Owner   types.AccountID
}

// Pallet provides access to the claims registry.
type Pallet struct {
	store storage.Store
}

// New constructs the claims pallet over the given store.
func New(store storage.Store) *Pallet {
	return &Pallet{store: store}
}

// Owner returns the account owning content and whether a claim exists.
func (p *Pallet) Owner(content string) (types.AccountID, bool, error) {
	v, err := p.store.Get(claimKey(content))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return types.AccountID{}, false, nil
		}
		return types.AccountID{}, false, fmt.Errorf("reading claim: %w", err)
	}

	owner, err := types.ToAccountID(v)
	if err != nil {
		return types.AccountID{}, false, fmt.Errorf("decoding claim owner: %w", err)
	}
	return owner, true, nil
}

// CreateClaim registers the caller as the owner of content. First claimant
// wins; a second claim on the same content fails.
func (p *Pallet) CreateClaim(caller types.AccountID, content string) error {
	_, claimed, err := p.Owner(content)
	if err != nil {
		return err
	}
	if claimed {
		return ErrAlreadyClaimed
	}

	if err := p.store.Put(claimKey(content), caller[:]); err != nil {
		return fmt.Errorf("persisting claim: %w", err)
	}
	return nil
}

// RevokeClaim deletes the caller's claim on content, freeing it for anyone
// to claim again.
func (p *Pallet) RevokeClaim(caller types.AccountID, content string) error {
	owner, claimed, err := p.Owner(content)
	if err != nil {
		return err
	}
	if !claimed {
		return ErrNotClaimed
	}
	if owner != caller {
		return ErrNotOwner
	}

	if err := p.store.Delete(claimKey(content)); err != nil {
		return fmt.Errorf("deleting claim: %w", err)
	}
	return nil
}

// All returns every claim on the chain, ordered by content bytes.
func (p *Pallet) All() ([]Claim, error) {
	entries, err := p.store.ScanPrefix(prefixClaim)
	if err != nil {
		return nil, fmt.Errorf("scanning claims: %w", err)
	}

	claims := make([]Claim, 0, len(entries))
	for _, ent := range entries {
		content := bytes.TrimPrefix(ent.Key, prefixClaim)

		owner, err := types.ToAccountID(ent.Value)
		if err != nil {
			return nil, fmt.Errorf("decoding claim owner: %w", err)
		}

		claims = append(claims, Claim{Content: string(content), Owner: owner})
	}

	return claims, nil
}

// claimKey forms the storage key for a claim. Content bytes go in raw.
func claimKey(content string) []byte {
	key := make([]byte, 0, len(prefixClaim)+len(content))
	key = append(key, prefixClaim...)
	key = append(key, content...)
	return key
}

// =============================================================================

// Call is the set of claims calls an extrinsic can carry.
type Call interface {
	isClaimsCall()
}

// Claims call discriminants.
const (
	CallCreateClaim uint8 = 0
	CallRevokeClaim uint8 = 1
)

// CreateClaimCall registers the signer as first claimant of the content.
type CreateClaimCall struct {
	Content string
}

// RevokeClaimCall removes the signer's claim on the content.
type RevokeClaimCall struct {
	Content string
}

func (CreateClaimCall) isClaimsCall() {}
func (RevokeClaimCall) isClaimsCall() {}

// Dispatch routes a claims call to the pallet method that executes it.
func (p *Pallet) Dispatch(caller types.AccountID, call Call) error {
	switch c := call.(type) {
	case CreateClaimCall:
		return p.CreateClaim(caller, c.Content)
	case RevokeClaimCall:
		return p.RevokeClaim(caller, c.Content)
	default:
		return fmt.Errorf("unknown claims call %T", call)
	}
}
