package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/specgate/internal/model"
	"github.com/sprite-ai/specgate/internal/report"
	"github.com/sprite-ai/specgate/internal/review"
)

var reviewMessageCmd = &cobra.Command{
	Use:   "review-message",
	Short: "Approve, reject or defer an auto-accepted message",
	Long: `Record a decision on a message that was auto-accepted during parsing.

Example:
  specgate review-message --device-type Roche_CobasLiat --message XYZ.R99 \
    --action approve --notes "Vendor QC result message"`,
	Args: cobra.NoArgs,
	RunE: runReviewMessage,
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List auto-accepted messages awaiting review",
	Args:  cobra.NoArgs,
	RunE:  runPending,
}

func init() {
	reviewMessageCmd.Flags().String("device-type", "", "device id, <vendor>_<model>")
	reviewMessageCmd.Flags().String("message", "", "message id")
	reviewMessageCmd.Flags().String("action", "", "approve, reject or defer")
	reviewMessageCmd.Flags().String("notes", "", "review notes")
	_ = reviewMessageCmd.MarkFlagRequired("device-type")
	_ = reviewMessageCmd.MarkFlagRequired("message")
	_ = reviewMessageCmd.MarkFlagRequired("action")

	pendingCmd.Flags().String("device-type", "", "only this device")
	pendingCmd.Flags().Bool("write", false, "write the pending review report")
	pendingCmd.Flags().StringP("format", "f", "text", "output format: text, json")
}

func runReviewMessage(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	deviceType, _ := f.GetString("device-type")
	messageID, _ := f.GetString("message")
	action, _ := f.GetString("action")
	notes, _ := f.GetString("notes")

	status, err := model.ParseReviewAction(action)
	if err != nil {
		return err
	}

	store := review.NewFileStore(cfg.CustomMessagesPath)
	if _, err := review.Review(store, deviceType, messageID, status, strings.TrimSpace(notes)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s\n", messageID, deviceType, status)
	return nil
}

func runPending(cmd *cobra.Command, args []string) error {
	store := review.NewFileStore(cfg.CustomMessagesPath)
	msgs, err := store.Load()
	if err != nil {
		return err
	}

	deviceType, _ := cmd.Flags().GetString("device-type")
	var pending []review.PendingMessage
	for _, p := range review.Pending(msgs) {
		if deviceType == "" || p.DeviceType == deviceType {
			pending = append(pending, p)
		}
	}

	out := cmd.OutOrStdout()
	if format, _ := cmd.Flags().GetString("format"); format == "json" {
		if pending == nil {
			pending = []review.PendingMessage{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(pending)
	}

	if len(pending) == 0 {
		fmt.Fprintln(out, "No messages pending review.")
		return nil
	}
	device := ""
	for _, p := range pending {
		if p.DeviceType != device {
			device = p.DeviceType
			fmt.Fprintf(out, "%s\n", device)
		}
		fmt.Fprintf(out, "  %-12s %d citation(s)  %s\n", p.MessageID, len(p.Entry.Citations), p.Entry.Notes)
	}

	if write, _ := cmd.Flags().GetBool("write"); write {
		path, err := report.NewGenerator().WritePendingReview(reviewDir(cfg), msgs)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nReport: %s\n", path)
	}
	return nil
}
