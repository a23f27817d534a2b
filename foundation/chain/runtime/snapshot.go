package runtime

import (
	"github.com/ardanlabs/statechain/foundation/chain/keyring"
	"github.com/ardanlabs/statechain/foundation/chain/types"
)

// AccountState is one dev account's view in a snapshot.
type AccountState struct {
	Name    string      `json:"name"`
	Account string      `json:"account"`
	Nonce   types.Nonce `json:"nonce"`
	Balance string      `json:"balance"`
}

// ClaimState is one claim in a snapshot.
type ClaimState struct {
	Content string `json:"content"`
	Owner   string `json:"owner"`
}

// Snapshot is a human-readable view of the chain state: the block number,
// the dev accounts, and every claim.
type Snapshot struct {
	BlockNumber types.BlockNumber `json:"block_number"`
	Accounts    []AccountState    `json:"accounts"`
	Claims      []ClaimState      `json:"claims"`
}

// Snapshot collects the current chain state.
func (rt *Runtime) Snapshot() (Snapshot, error) {
	number, err := rt.System.BlockNumber()
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{BlockNumber: number}

	for _, key := range keyring.DevAccounts() {
		account := key.AccountID()

		nonce, err := rt.System.Nonce(account)
		if err != nil {
			return Snapshot{}, err
		}
		balance, err := rt.Balances.Balance(account)
		if err != nil {
			return Snapshot{}, err
		}

		snap.Accounts = append(snap.Accounts, AccountState{
			Name:    key.Name,
			Account: account.String(),
			Nonce:   nonce,
			Balance: balance.Dec(),
		})
	}

	claims, err := rt.Claims.All()
	if err != nil {
		return Snapshot{}, err
	}
	for _, c := range claims {
		snap.Claims = append(snap.Claims, ClaimState{
			Content: c.Content,
			Owner:   c.Owner.String(),
		})
	}

	return snap, nil
}
