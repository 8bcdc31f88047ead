package cli

import (
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "viewrace",
	Short:   "Race a cached view counter against its database",
	Version: version,
	Long: `Viewrace hammers a view-count increment endpoint with concurrent POSTs
so a cache/database mismatch can be observed by hand afterwards.

It also ships the target itself: a small server that keeps the count in
Redis and PostgreSQL under one of several update strategies.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print help
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.Main(). Cobra has already printed the error.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(strategiesCmd)
	RootCmd.AddCommand(probeCmd)
}
