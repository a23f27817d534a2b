package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/statechain/foundation/chain/runtime"
	"github.com/ardanlabs/statechain/foundation/chain/storage/pebbledb"
	"github.com/spf13/cobra"
)

var stateDBPath string

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print a snapshot of the chain state from a database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := pebbledb.Open(stateDBPath)
		if err != nil {
			return fmt.Errorf("opening chain database: %w", err)
		}
		defer store.Close()

		snap, err := runtime.New(store, nil).Snapshot()
		if err != nil {
			return fmt.Errorf("reading chain state: %w", err)
		}

		out, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}

		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.Flags().StringVarP(&stateDBPath, "db-path", "d", "zchain/data", "Path to the chain database.")
}
