package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/specgate/internal/specdiff"
	"github.com/sprite-ai/specgate/internal/workflow"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Register a new device type with its first spec version",
	Long: `Parse the first version of a device's interface spec, record it as the
baseline in the registry and write a baseline report. Messages the taxonomy
does not know are queued for review.

Example:
  specgate onboard --vendor Roche --model CobasLiat --version 1.0 \
    --pdf specs/liat_v1.pdf --document specs/liat_v1.json`,
	Args: cobra.NoArgs,
	RunE: runOnboard,
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Record a new spec version for a registered device",
	Long: `Compare a new spec version with the device's current one and record it.
When the changes require a parser rebuild the update is held back until it
is approved with --approve.

Exit codes:
  0 - version recorded
  1 - rebuild required; review the report and re-run with --approve`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	onboardCmd.Flags().String("vendor", "", "device vendor")
	onboardCmd.Flags().String("model", "", "device model")
	onboardCmd.Flags().String("name", "", "display name (default \"<vendor> <model>\")")
	onboardCmd.Flags().String("version", "", "spec version")
	onboardCmd.Flags().String("pdf", "", "path to the spec PDF")
	onboardCmd.Flags().String("document", "", "path to the extracted document JSON")
	onboardCmd.Flags().StringP("format", "f", "text", "output format: text, json")

	updateCmd.Flags().String("device-type", "", "device id, <vendor>_<model>")
	updateCmd.Flags().String("version", "", "new spec version")
	updateCmd.Flags().String("pdf", "", "path to the spec PDF")
	updateCmd.Flags().String("document", "", "path to the extracted document JSON")
	updateCmd.Flags().String("approve", "", "reason for approving a required rebuild")
	updateCmd.Flags().StringP("format", "f", "text", "output format: text, json")
}

func runOnboard(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cfg)
	if err != nil {
		return err
	}
	wf, err := e.workflow()
	if err != nil {
		return err
	}

	f := cmd.Flags()
	req := workflow.OnboardRequest{}
	req.Vendor, _ = f.GetString("vendor")
	req.Model, _ = f.GetString("model")
	req.DeviceName, _ = f.GetString("name")
	req.Version, _ = f.GetString("version")
	req.PDFPath, _ = f.GetString("pdf")
	req.DocumentPath, _ = f.GetString("document")

	res, err := wf.Onboard(cmd.Context(), req)
	if err != nil {
		return err
	}
	format, _ := f.GetString("format")
	return printResult(cmd.OutOrStdout(), res, format)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cfg)
	if err != nil {
		return err
	}
	wf, err := e.workflow()
	if err != nil {
		return err
	}

	f := cmd.Flags()
	req := workflow.UpdateRequest{}
	req.DeviceID, _ = f.GetString("device-type")
	req.Version, _ = f.GetString("version")
	req.PDFPath, _ = f.GetString("pdf")
	req.DocumentPath, _ = f.GetString("document")
	req.Approval, _ = f.GetString("approve")

	res, err := wf.Update(cmd.Context(), req)
	if err != nil {
		return err
	}
	format, _ := f.GetString("format")
	if err := printResult(cmd.OutOrStdout(), res, format); err != nil {
		return err
	}
	if !res.Outcome.Proceeds() {
		return &exitError{code: 1}
	}
	return nil
}

func printResult(w io.Writer, res *workflow.Result, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	d := res.Diff
	fmt.Fprintf(w, "Device:   %s\n", res.DeviceID)
	fmt.Fprintf(w, "Version:  %s\n", d.NewVersion)
	fmt.Fprintf(w, "Outcome:  %s\n", res.Outcome)
	if !d.IsBaseline {
		fmt.Fprintf(w, "Reason:   %s\n", d.Decision.Reason)
	}
	if inv := d.NewInventory; inv != nil {
		fmt.Fprintf(w, "Messages: %d recognized, %d unrecognized, %d fields\n",
			len(inv.Recognized), len(inv.Unrecognized), len(inv.Fields))
	}
	fmt.Fprintf(w, "Report:   %s\n", res.ReportPath)
	if res.IndexPath != "" {
		fmt.Fprintf(w, "Index:    %s\n", res.IndexPath)
	}
	if res.PendingReviewPath != "" {
		fmt.Fprintf(w, "Review:   %s\n", res.PendingReviewPath)
	}

	switch res.Outcome {
	case specdiff.OutcomeBlocked:
		fmt.Fprintf(w, "\nRebuild required. Review the report, then re-run with --approve \"<reason>\".\n")
	case specdiff.OutcomeRebuildApproved:
		fmt.Fprintf(w, "\nRebuild approved and index rebuilt.\n")
	}
	return nil
}
