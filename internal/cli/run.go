package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/viewrace/internal/loadtest"
	"github.com/wesleyorama2/viewrace/internal/output"
	"github.com/wesleyorama2/viewrace/internal/viewcount"
)

// loadConfig supplies the run configuration. Tests point it at a stub.
var loadConfig = loadtest.DefaultConfig

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fire the load at the view-count endpoint",
	Long: `Start 50 workers that each POST 100 times to
http://127.0.0.1:5000/api/view/increment/1, then report how many calls
answered HTTP 200.

The load shape is fixed. Non-200 responses and transport failures are
printed as they happen and never stop the run. The command always exits 0
once the run has started; Ctrl-C stops waiting and prints what has been
counted so far.

With --format json or yaml the banners move to stderr and stdout carries
only the encoded summary.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd, args)
	},
}

// runLoad runs the load generator and prints its summary
func runLoad(cmd *cobra.Command, args []string) error {
	noColor, _ := cmd.Flags().GetBool("no-color")
	formatFlag, _ := cmd.Flags().GetString("format")

	format, err := output.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	bannerOut := cmd.OutOrStdout()
	if format != output.FormatText {
		bannerOut = cmd.ErrOrStderr()
	}
	console := output.NewConsole(output.ConsoleConfig{
		Writer:    bannerOut,
		ErrWriter: cmd.ErrOrStderr(),
		NoColor:   noColor,
	})

	gen, err := loadtest.NewGenerator(loadConfig(), loadtest.WithReporter(console))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console.PrintBanner(gen.Config())

	summary, err := gen.Run(ctx)
	if err != nil {
		return err
	}

	cacheKey := viewcount.CacheKey(loadtest.DefaultPostID)
	query := viewcount.CountQuery(loadtest.DefaultPostID)

	console.PrintSummary(summary)
	console.PrintReminder(cacheKey, query)

	if format == output.FormatText {
		return nil
	}

	encoded, err := output.FormatSummary(output.NewSummaryData(gen.Config(), summary, cacheKey, query), format)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), encoded)
	return nil
}

func init() {
	runCmd.Flags().Bool("no-color", false, "Disable colored output")
	runCmd.Flags().StringP("format", "f", "text", "Summary format (text, json, yaml)")
}
