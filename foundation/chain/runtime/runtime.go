// Package runtime composes the pallets into a single dispatchable state
// machine and implements block execution: parallel signature verification
// followed by sequential dispatch.
package runtime

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/statechain/foundation/chain/balances"
	"github.com/ardanlabs/statechain/foundation/chain/claims"
	"github.com/ardanlabs/statechain/foundation/chain/signature"
	"github.com/ardanlabs/statechain/foundation/chain/storage"
	"github.com/ardanlabs/statechain/foundation/chain/system"
	"github.com/ardanlabs/statechain/foundation/chain/types"
)

// ErrBadBlockNumber is returned when a block's header number does not match
// the runtime block number after the increment. The block is rejected; the
// increment is not rolled back.
var ErrBadBlockNumber = errors.New("block number does not match what is expected")

// EventHandler defines a function that is called as blocks and extrinsics
// are processed, for logging and observability.
type EventHandler func(v string, args ...any)

// Runtime routes calls to the pallets and executes blocks against the
// shared store.
type Runtime struct {
	System   *system.Pallet
	Balances *balances.Pallet
	Claims   *claims.Pallet
	ev       EventHandler
}

// New constructs a runtime over the given store.
func New(store storage.Store, ev EventHandler) *Runtime {
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	return &Runtime{
		System:   system.New(store),
		Balances: balances.New(store),
		Claims:   claims.New(store),
		ev:       ev,
	}
}

// Dispatch routes a verified call to the matching pallet. The caller is the
// verified signer of the extrinsic the call arrived in.
func (rt *Runtime) Dispatch(caller types.AccountID, call Call) error {
	switch c := call.(type) {
	case BalancesCall:
		return rt.Balances.Dispatch(caller, c.Call)
	case ClaimsCall:
		return rt.Claims.Dispatch(caller, c.Call)
	default:
		return fmt.Errorf("unknown call %T", call)
	}
}

// ExecuteBlock applies a block to the chain state.
//
// The block number is incremented first and checked against the header; a
// mismatch rejects the block. Pass 1 verifies every extrinsic signature in
// parallel with no state access. Pass 2 walks the extrinsics in block order:
// a bad signature or a nonce mismatch skips the extrinsic entirely, while a
// dispatch failure bumps the nonce and moves on. Only infrastructure errors
// (storage, counter overflow) abort execution.
func (rt *Runtime) ExecuteBlock(block Block) error {
	number, err := rt.System.IncBlockNumber()
	if err != nil {
		return err
	}
	if block.Header.BlockNumber != number {
		return fmt.Errorf("%w: header %d, runtime %d", ErrBadBlockNumber, block.Header.BlockNumber, number)
	}

	// Pass 1: verify all signatures in parallel.
	items := make([]signature.BatchItem, len(block.Extrinsics))
	for i, ext := range block.Extrinsics {
		payload, err := SignedPayload(ext.Signer, ext.Nonce, ext.Call)
		if err != nil {
			return err
		}
		items[i] = signature.BatchItem{Pub: ext.Signer, Message: payload, Sig: ext.Signature}
	}
	sigResults := signature.VerifyBatch(items)

	// Pass 2: sequential nonce check and dispatch.
	for i, ext := range block.Extrinsics {
		if sigResults[i] != nil {
			rt.ev("runtime: block %d: extrinsic %d: bad signature, skipped", number, i)
			continue
		}

		nonce, err := rt.System.Nonce(ext.Signer)
		if err != nil {
			return err
		}
		if ext.Nonce != nonce {
			rt.ev("runtime: block %d: extrinsic %d: nonce mismatch, have %d want %d, skipped", number, i, ext.Nonce, nonce)
			continue
		}

		if err := rt.System.IncNonce(ext.Signer); err != nil {
			return err
		}

		if err := rt.Dispatch(ext.Signer, ext.Call); err != nil {
			if !isDispatchError(err) {
				return err
			}
			rt.ev("runtime: block %d: extrinsic %d: dispatch failed: %s", number, i, err)
		}
	}

	return nil
}

// isDispatchError reports whether the error is an expected per-extrinsic
// dispatch outcome rather than an infrastructure failure. Dispatch errors
// never abort a block.
func isDispatchError(err error) bool {
	switch {
	case errors.Is(err, balances.ErrInsufficientFunds),
		errors.Is(err, balances.ErrBalanceOverflow),
		errors.Is(err, claims.ErrAlreadyClaimed),
		errors.Is(err, claims.ErrNotClaimed),
		errors.Is(err, claims.ErrNotOwner):
		return true
	}
	return false
}
