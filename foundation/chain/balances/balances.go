// Package balances implements the balances pallet: one 128 bit token
// balance per account with checked transfer arithmetic.
package balances

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/statechain/foundation/chain/codec"
	"github.com/ardanlabs/statechain/foundation/chain/storage"
	"github.com/ardanlabs/statechain/foundation/chain/types"
	"github.com/holiman/uint256"
)

var (
	// ErrInsufficientFunds is returned when the caller's balance cannot
	// cover the transfer amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrBalanceOverflow is returned when crediting the recipient would
	// push their balance past the 128 bit range.
	ErrBalanceOverflow = errors.New("balance overflow")
)

var prefixBalance = []byte("balances:balance:")

// Pallet provides access to account balances.
type Pallet struct {
	store storage.Store
}

// New constructs the balances pallet over the given store.
func New(store storage.Store) *Pallet {
	return &Pallet{store: store}
}

// Balance returns the account's balance, 0 for an account never funded.
func (p *Pallet) Balance(account types.AccountID) (types.Balance, error) {
	v, err := p.store.Get(balanceKey(account))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return types.Balance{}, nil
		}
		return types.Balance{}, fmt.Errorf("reading balance: %w", err)
	}

	r := codec.NewReader(v)
	amount, err := r.U128()
	if err != nil {
		return types.Balance{}, fmt.Errorf("decoding balance: %w", err)
	}
	if err := r.Done(); err != nil {
		return types.Balance{}, fmt.Errorf("decoding balance: %w", err)
	}
	return amount, nil
}

// SetBalance writes the account's balance unchecked. Only genesis uses it.
func (p *Pallet) SetBalance(account types.AccountID, amount types.Balance) error {
	w := codec.NewWriter()
	w.U128(amount)

	if err := p.store.Put(balanceKey(account), w.Bytes()); err != nil {
		return fmt.Errorf("persisting balance: %w", err)
	}
	return nil
}

// Transfer moves amount from the caller to the recipient. On any failure
// neither balance changes.
func (p *Pallet) Transfer(caller types.AccountID, to types.AccountID, amount types.Balance) error {
	callerBalance, err := p.Balance(caller)
	if err != nil {
		return err
	}
	if callerBalance.Lt(&amount) {
		return ErrInsufficientFunds
	}

	// A self-transfer that clears the funds check leaves the balance as is.
	if caller == to {
		return nil
	}

	toBalance, err := p.Balance(to)
	if err != nil {
		return err
	}

	var newTo uint256.Int
	newTo.Add(&toBalance, &amount)
	if newTo[2] != 0 {
		return ErrBalanceOverflow
	}

	var newCaller uint256.Int
	newCaller.Sub(&callerBalance, &amount)

	if err := p.SetBalance(caller, newCaller); err != nil {
		return err
	}
	return p.SetBalance(to, newTo)
}

func balanceKey(account types.AccountID) []byte {
	key := make([]byte, 0, len(prefixBalance)+len(account))
	key = append(key, prefixBalance...)
	key = append(key, account[:]...)
	return key
}

// =============================================================================

// Call is the set of balances calls an extrinsic can carry.
type Call interface {
	isBalancesCall()
}

// Transfer call discriminants.
const (
	CallTransfer uint8 = 0
)

// TransferCall moves tokens from the verified signer to another account.
type TransferCall struct {
	To     types.AccountID
	Amount types.Balance
}

func (TransferCall) isBalancesCall() {}

// Dispatch routes a balances call to the pallet method that executes it.
// The caller is the verified signer of the enclosing extrinsic.
func (p *Pallet) Dispatch(caller types.AccountID, call Call) error {
	switch c := call.(type) {
	case TransferCall:
		return p.Transfer(caller, c.To, c.Amount)
	default:
		return fmt.Errorf("unknown balances call %T", call)
	}
}
