package cmd

import (
	"fmt"
	"strconv"

	"github.com/ardanlabs/statechain/foundation/chain/balances"
	"github.com/ardanlabs/statechain/foundation/chain/runtime"
	"github.com/ardanlabs/statechain/foundation/chain/types"
	"github.com/spf13/cobra"
)

var transferCmd = &cobra.Command{
	Use:   "transfer <from> <to> <amount>",
	Short: "Sign and submit a balance transfer",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := devKey(args[0])
		if err != nil {
			return err
		}

		to, err := resolveAccount(args[1])
		if err != nil {
			return fmt.Errorf("resolving recipient: %w", err)
		}

		amount, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("parsing amount: %w", err)
		}

		nonce, err := pendingNonce(from.AccountID())
		if err != nil {
			return err
		}

		call := runtime.BalancesCall{Call: balances.TransferCall{To: to, Amount: types.NewBalance(amount)}}
		ext, err := runtime.NewSigned(from.PrivateKey(), nonce, call)
		if err != nil {
			return fmt.Errorf("signing extrinsic: %w", err)
		}

		if err := submit(ext); err != nil {
			return err
		}

		fmt.Printf("submitted transfer of %d from %s to %s at nonce %d\n", amount, from.Name, args[1], nonce)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(transferCmd)
}
