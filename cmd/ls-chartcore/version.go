package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-chartcore/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	// No config or evaluator needed.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ls-chartcore v%s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
