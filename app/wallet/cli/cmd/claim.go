package cmd

import (
	"fmt"

	"github.com/ardanlabs/statechain/foundation/chain/claims"
	"github.com/ardanlabs/statechain/foundation/chain/runtime"
	"github.com/spf13/cobra"
)

var revoke bool

var claimCmd = &cobra.Command{
	Use:   "claim <who> <content>",
	Short: "Sign and submit a proof-of-existence claim",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		who, err := devKey(args[0])
		if err != nil {
			return err
		}
		content := args[1]

		nonce, err := pendingNonce(who.AccountID())
		if err != nil {
			return err
		}

		var call runtime.Call
		action := "claim"
		if revoke {
			call = runtime.ClaimsCall{Call: claims.RevokeClaimCall{Content: content}}
			action = "revoke"
		} else {
			call = runtime.ClaimsCall{Call: claims.CreateClaimCall{Content: content}}
		}

		ext, err := runtime.NewSigned(who.PrivateKey(), nonce, call)
		if err != nil {
			return fmt.Errorf("signing extrinsic: %w", err)
		}

		if err := submit(ext); err != nil {
			return err
		}

		fmt.Printf("submitted %s of %q by %s at nonce %d\n", action, content, who.Name, nonce)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(claimCmd)
	claimCmd.Flags().BoolVarP(&revoke, "revoke", "r", false, "Revoke the claim instead of creating it.")
}
