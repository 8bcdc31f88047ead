package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	httpclient "github.com/wesleyorama2/viewrace/internal/http"
	"github.com/wesleyorama2/viewrace/internal/loadtest"
	"github.com/wesleyorama2/viewrace/internal/output"
	"github.com/wesleyorama2/viewrace/internal/probe"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Send one increment and check the response shape",
	Long: `Send a single POST to the target and check that it answers HTTP 200
with a well-formed increment body. Run it before "viewrace run" to make sure
the target is up. Note that the probe itself counts as one view.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProbe(cmd, args)
	},
}

func runProbe(cmd *cobra.Command, args []string) error {
	url, _ := cmd.Flags().GetString("url")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	formatFlag, _ := cmd.Flags().GetString("format")

	format, err := output.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	client := httpclient.NewClient(httpclient.WithTimeout(timeout))
	result, err := probe.Check(cmd.Context(), client, url)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case output.FormatJSON:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	case output.FormatYAML:
		data, err := yaml.Marshal(result)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(data))
	default:
		fmt.Fprintf(out, "Target OK: HTTP %d in %d ms, reported view count %d\n",
			result.StatusCode, result.DurationMs, result.ReportedCount)
	}
	return nil
}

func init() {
	probeCmd.Flags().StringP("url", "u", loadtest.DefaultTargetURL, "Increment endpoint to probe")
	probeCmd.Flags().Duration("timeout", 10*time.Second, "Request timeout")
	probeCmd.Flags().StringP("format", "f", "text", "Output format (text, json, yaml)")
}
