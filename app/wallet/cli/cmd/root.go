// Package cmd contains the wallet commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/ardanlabs/statechain/foundation/chain/keyring"
	"github.com/ardanlabs/statechain/foundation/chain/types"
	"github.com/spf13/cobra"
)

var nodeURL string

func init() {
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "node", "n", "http://localhost:8080", "URL of the node RPC.")
}

var rootCmd = &cobra.Command{
	Use:   "chainctl",
	Short: "Sign and submit extrinsics, inspect and reset chain state",
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// devKey resolves a dev account name into its keypair.
func devKey(name string) (keyring.Key, error) {
	switch name {
	case keyring.Alice, keyring.Bob, keyring.Charlie:
		return keyring.Dev(name), nil
	}
	return keyring.Key{}, fmt.Errorf("unknown dev account %q, want alice, bob, or charlie", name)
}

// resolveAccount turns a dev account name or a hex account id into an
// AccountID.
func resolveAccount(s string) (types.AccountID, error) {
	if key, err := devKey(s); err == nil {
		return key.AccountID(), nil
	}
	return types.ParseAccountID(s)
}
