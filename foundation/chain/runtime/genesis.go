package runtime

import (
	"fmt"

	"github.com/ardanlabs/statechain/foundation/chain/keyring"
	"github.com/ardanlabs/statechain/foundation/chain/types"
)

// GenesisBalance is the amount every dev account starts with.
const GenesisBalance = 1_000_000

// ApplyGenesis funds the dev accounts and seals block 1 on a brand-new
// chain. A chain past block 0 is left untouched, so the call is idempotent.
// Genesis is the one block produced without a connected peer: it gives the
// chain a nonzero state for later peers to resync from.
func (rt *Runtime) ApplyGenesis() (bool, error) {
	number, err := rt.System.BlockNumber()
	if err != nil {
		return false, err
	}
	if number != 0 {
		return false, nil
	}

	for _, key := range keyring.DevAccounts() {
		if err := rt.Balances.SetBalance(key.AccountID(), types.NewBalance(GenesisBalance)); err != nil {
			return false, fmt.Errorf("funding %s: %w", key.Name, err)
		}
	}

	genesis := Block{Header: Header{BlockNumber: 1}}
	if err := rt.ExecuteBlock(genesis); err != nil {
		return false, fmt.Errorf("executing genesis block: %w", err)
	}

	rt.ev("runtime: genesis: dev accounts funded with %d each", GenesisBalance)
	return true, nil
}
