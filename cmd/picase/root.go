package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for picase.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "picase",
		Short: "Personal injury case summaries from extracted case documents",
		Long: `picase reads the documents an intelligent document processing (IDP) step
extracted from a personal injury case folder (medical records, police reports,
insurance policies and medical bills) and renders an attorney-facing case
summary with New York serious injury threshold and No-Fault analysis.

The same record drives a settlement demand letter, a terminal preview and a
local history of every rendered case.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .picase in current or home directory)")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewBatchCmd())
	cmd.AddCommand(NewDemandCmd())
	cmd.AddCommand(NewPreviewCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
