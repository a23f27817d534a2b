// Package types defines the concrete type set the runtime supplies to every
// pallet: account identity, nonce, balance, and block number.
package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// AccountIDSize is the byte length of an account identifier, which doubles
// as the ed25519 public key used to verify that account's signatures.
const AccountIDSize = 32

// AccountID uniquely identifies an account on the chain. Ordering and
// equality are byte-lexicographic.
type AccountID [AccountIDSize]byte

// ToAccountID constructs an AccountID from a raw 32 byte slice.
func ToAccountID(b []byte) (AccountID, error) {
	if len(b) != AccountIDSize {
		return AccountID{}, fmt.Errorf("account id must be %d bytes, got %d", AccountIDSize, len(b))
	}

	var id AccountID
	copy(id[:], b)
	return id, nil
}

// ParseAccountID converts a hex string, with or without the 0x prefix,
// into an AccountID.
func ParseAccountID(s string) (AccountID, error) {
	if len(s) < 2 || s[:2] != "0x" {
		s = "0x" + s
	}

	b, err := hexutil.Decode(s)
	if err != nil {
		return AccountID{}, fmt.Errorf("decoding account id: %w", err)
	}

	return ToAccountID(b)
}

// String returns the 0x prefixed hex form of the account id.
func (id AccountID) String() string {
	return hexutil.Encode(id[:])
}

// =============================================================================

// Nonce counts the dispatched extrinsics for an account. It increments once
// per attempted dispatch, which is what gives the chain replay protection.
type Nonce uint32

// BlockNumber identifies a block's height. Genesis state is block 0; the
// first produced block is block 1.
type BlockNumber uint32

// Balance is an unsigned 128 bit token amount. It is backed by a 256 bit
// integer; all arithmetic in the balances pallet is checked against the
// 128 bit range and the codec writes exactly 16 bytes.
type Balance = uint256.Int

// NewBalance constructs a balance from a uint64 amount.
func NewBalance(amount uint64) Balance {
	return *uint256.NewInt(amount)
}
