package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var resetDBPath string

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the chain database directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.RemoveAll(resetDBPath); err != nil {
			return fmt.Errorf("removing %q: %w", resetDBPath, err)
		}

		fmt.Printf("removed %s\n", resetDBPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().StringVarP(&resetDBPath, "db-path", "d", "zchain/data", "Path to the chain database.")
}
