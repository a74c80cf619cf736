package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for linkmatch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkmatch",
		Short: "Extract link targets from HTML files and URLs",
		Long: `linkmatch extracts the href targets of <a> tags from local HTML files
and from pages fetched over a plain HTTP/1.1 connection.

Fragments are stripped and duplicates removed, keeping first-seen order.
Every extraction is recorded in a local history database so that link
changes of a page can be compared over time.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging (prints fetched documents)")

	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
