// Package main provides the entry point for the TransferMap CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for TransferMap.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfermap",
		Short: "Course transfer equivalency crawler and lookup tool",
		Long: `TransferMap crawls a university transfer equivalency portal and builds a
local relational dataset of course equivalencies: which courses at other
institutions transfer as which home-institution courses.

The crawl is polite by default (8 requests per minute, identifying
User-Agent) and idempotent: running it twice converges to the same
dataset without duplicating records.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewLookupCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}
