package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/specgate/internal/review"
	"github.com/sprite-ai/specgate/internal/tui"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review pending messages interactively",
	Long: `Open an interactive session over the auto-accepted messages that are
still pending. Decisions are recorded when the session ends.

Keys: a approve, r reject, d defer, u undo, ? help, q quit.`,
	Args: cobra.NoArgs,
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().String("device-type", "", "only review this device")
	reviewCmd.Flags().String("notes", "", "notes recorded with every decision")
}

func runReview(cmd *cobra.Command, args []string) error {
	store := review.NewFileStore(cfg.CustomMessagesPath)
	msgs, err := store.Load()
	if err != nil {
		return err
	}

	deviceType, _ := cmd.Flags().GetString("device-type")
	var items []review.PendingMessage
	for _, p := range review.Pending(msgs) {
		if deviceType == "" || p.DeviceType == deviceType {
			items = append(items, p)
		}
	}
	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "No messages pending review.")
		return nil
	}

	result, err := tui.Run(items)
	if err != nil {
		return err
	}

	notes, _ := cmd.Flags().GetString("notes")
	n, err := result.Apply(store, notes)
	if err != nil {
		return fmt.Errorf("recorded %d decision(s) before failing: %w", n, err)
	}
	fmt.Fprintln(out, result.Summary())
	return nil
}
