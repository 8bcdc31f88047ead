package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/viewrace/internal/viewcount"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the update strategies the server can run",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		listStrategies(cmd)
	},
}

func listStrategies(cmd *cobra.Command) {
	name := color.New(color.FgCyan, color.Bold)
	for _, s := range viewcount.Names() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", name.Sprintf("%-15s", s), viewcount.Describe(s))
	}
}
