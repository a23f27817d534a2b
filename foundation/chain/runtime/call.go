package runtime

import (
	"fmt"

	"github.com/ardanlabs/statechain/foundation/chain/balances"
	"github.com/ardanlabs/statechain/foundation/chain/claims"
	"github.com/ardanlabs/statechain/foundation/chain/codec"
)

// Pallet discriminants, the first byte of every encoded call.
const (
	palletBalances uint8 = 0
	palletClaims   uint8 = 1
)

// Call is the top level call union: one variant per pallet, each wrapping
// that pallet's own call type. Dispatch routes on the variant.
type Call interface {
	isCall()
}

// BalancesCall wraps a balances pallet call.
type BalancesCall struct {
	Call balances.Call
}

// ClaimsCall wraps a claims pallet call.
type ClaimsCall struct {
	Call claims.Call
}

func (BalancesCall) isCall() {}
func (ClaimsCall) isCall()   {}

// =============================================================================

// encodeCall appends the canonical encoding of a call: pallet discriminant,
// call discriminant, then the call's fields.
func encodeCall(w *codec.Writer, call Call) error {
	switch c := call.(type) {
	case BalancesCall:
		w.U8(palletBalances)
		switch bc := c.Call.(type) {
		case balances.TransferCall:
			w.U8(balances.CallTransfer)
			w.Bytes32(bc.To)
			w.U128(bc.Amount)
		default:
			return fmt.Errorf("encoding unknown balances call %T", c.Call)
		}

	case ClaimsCall:
		w.U8(palletClaims)
		switch cc := c.Call.(type) {
		case claims.CreateClaimCall:
			w.U8(claims.CallCreateClaim)
			w.String(cc.Content)
		case claims.RevokeClaimCall:
			w.U8(claims.CallRevokeClaim)
			w.String(cc.Content)
		default:
			return fmt.Errorf("encoding unknown claims call %T", c.Call)
		}

	default:
		return fmt.Errorf("encoding unknown call %T", call)
	}

	return nil
}

// decodeCall consumes a call from the reader.
func decodeCall(r *codec.Reader) (Call, error) {
	pallet, err := r.U8()
	if err != nil {
		return nil, err
	}

	switch pallet {
	case palletBalances:
		variant, err := r.U8()
		if err != nil {
			return nil, err
		}
		switch variant {
		case balances.CallTransfer:
			to, err := r.Bytes32()
			if err != nil {
				return nil, err
			}
			amount, err := r.U128()
			if err != nil {
				return nil, err
			}
			return BalancesCall{Call: balances.TransferCall{To: to, Amount: amount}}, nil
		default:
			return nil, fmt.Errorf("unknown balances call discriminant %d", variant)
		}

	case palletClaims:
		variant, err := r.U8()
		if err != nil {
			return nil, err
		}
		content, err := r.String()
		if err != nil {
			return nil, err
		}
		switch variant {
		case claims.CallCreateClaim:
			return ClaimsCall{Call: claims.CreateClaimCall{Content: content}}, nil
		case claims.CallRevokeClaim:
			return ClaimsCall{Call: claims.RevokeClaimCall{Content: content}}, nil
		default:
			return nil, fmt.Errorf("unknown claims call discriminant %d", variant)
		}

	default:
		return nil, fmt.Errorf("unknown pallet discriminant %d", pallet)
	}
}
