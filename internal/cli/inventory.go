package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/specgate/internal/inventory"
	"github.com/sprite-ai/specgate/internal/report"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory <document.json>",
	Short: "List the messages and fields found in a spec document",
	Long: `Parse an extracted spec document and print its message inventory.
With --device-type, unrecognized messages are queued for review under that
device; without it the review queue is not touched.`,
	Args: cobra.ExactArgs(1),
	RunE: runInventory,
}

func init() {
	inventoryCmd.Flags().String("device-type", "", "queue unrecognized messages for this device")
	inventoryCmd.Flags().StringP("format", "f", "text", "output format: text, json")
}

func runInventory(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cfg)
	if err != nil {
		return err
	}
	deviceType, _ := cmd.Flags().GetString("device-type")

	p, err := e.adhocParser()
	if deviceType != "" {
		p, err = e.parser()
	}
	if err != nil {
		return err
	}

	inv, err := p.ParseFile(args[0], deviceType)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format, _ := cmd.Flags().GetString("format"); format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(inv)
	}
	printInventory(out, inv)
	return nil
}

func printInventory(w io.Writer, inv *inventory.MessageInventory) {
	s := inv.Summary()
	fmt.Fprintf(w, "%d recognized, %d unrecognized messages; %d fields\n",
		len(inv.Recognized), len(inv.Unrecognized), s.Fields)

	for _, cat := range inv.SortedCategories() {
		fmt.Fprintf(w, "\n%s (%d)\n", report.CategoryTitle(cat), len(inv.Categories[cat]))
		fmt.Fprintf(w, "  %s\n", strings.Join(inv.Categories[cat], ", "))
	}

	if len(inv.Fields) > 0 {
		fmt.Fprintf(w, "\nFields\n")
		for _, f := range inv.Fields {
			fmt.Fprintf(w, "  %-10s %-24s %-4s %-2s  page %d\n", f.FieldID, f.Name, f.DataType, f.Optionality, f.Citation.Page)
		}
	}
}
