package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/specgate/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report <report.md>",
	Short: "Print a generated report with terminal highlighting",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().Bool("no-color", false, "print the report verbatim")
}

func runReport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading report: %w", err)
	}
	out := cmd.OutOrStdout()
	noColor, _ := cmd.Flags().GetBool("no-color")
	return report.Print(out, string(data), !noColor && isTerminal(out))
}
