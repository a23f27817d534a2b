// Package system implements the system pallet: the current block number and
// the per-account nonce. Both are read through to the key-value store so the
// store stays the single source of truth across restarts.
package system

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/statechain/foundation/chain/codec"
	"github.com/ardanlabs/statechain/foundation/chain/storage"
	"github.com/ardanlabs/statechain/foundation/chain/types"
)

var (
	// ErrBlockNumberOverflow is returned when the block number cannot be
	// incremented. The chain cannot continue past this point.
	ErrBlockNumberOverflow = errors.New("block number overflow")

	// ErrNonceOverflow is returned when an account nonce cannot be
	// incremented. Fatal for the same reason.
	ErrNonceOverflow = errors.New("nonce overflow")
)

var (
	keyBlockNumber = []byte("system:block_number")
	prefixNonce    = []byte("system:nonce:")
)

// Pallet provides access to the system state.
type Pallet struct {
	store storage.Store
}

// New constructs the system pallet over the given store.
func New(store storage.Store) *Pallet {
	return &Pallet{store: store}
}

// BlockNumber returns the current block number, 0 for a fresh chain.
func (p *Pallet) BlockNumber() (types.BlockNumber, error) {
	v, err := p.store.Get(keyBlockNumber)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading block number: %w", err)
	}

	n, err := decodeU32(v)
	if err != nil {
		return 0, fmt.Errorf("decoding block number: %w", err)
	}
	return types.BlockNumber(n), nil
}

// IncBlockNumber increments the block number by one and persists it. It is
// called exactly once per block execution, before any extrinsic dispatch.
func (p *Pallet) IncBlockNumber() (types.BlockNumber, error) {
	n, err := p.BlockNumber()
	if err != nil {
		return 0, err
	}
	if n == ^types.BlockNumber(0) {
		return 0, ErrBlockNumberOverflow
	}

	n++
	if err := p.store.Put(keyBlockNumber, encodeU32(uint32(n))); err != nil {
		return 0, fmt.Errorf("persisting block number: %w", err)
	}
	return n, nil
}

// Nonce returns the account's nonce, 0 for an account never seen.
func (p *Pallet) Nonce(account types.AccountID) (types.Nonce, error) {
	v, err := p.store.Get(nonceKey(account))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading nonce: %w", err)
	}

	n, err := decodeU32(v)
	if err != nil {
		return 0, fmt.Errorf("decoding nonce: %w", err)
	}
	return types.Nonce(n), nil
}

// IncNonce increments the account's nonce by one and persists it.
func (p *Pallet) IncNonce(account types.AccountID) error {
	n, err := p.Nonce(account)
	if err != nil {
		return err
	}
	if n == ^types.Nonce(0) {
		return ErrNonceOverflow
	}

	if err := p.store.Put(nonceKey(account), encodeU32(uint32(n+1))); err != nil {
		return fmt.Errorf("persisting nonce: %w", err)
	}
	return nil
}

// nonceKey forms the storage key for an account's nonce. The account bytes
// go in raw, not re-encoded.
func nonceKey(account types.AccountID) []byte {
	key := make([]byte, 0, len(prefixNonce)+len(account))
	key = append(key, prefixNonce...)
	key = append(key, account[:]...)
	return key
}

func encodeU32(v uint32) []byte {
	w := codec.NewWriter()
	w.U32(v)
	return w.Bytes()
}

func decodeU32(b []byte) (uint32, error) {
	r := codec.NewReader(b)
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	if err := r.Done(); err != nil {
		return 0, err
	}
	return v, nil
}
