package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/specgate/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list [device-type]",
	Short: "List registered devices, or one device's version history",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringP("format", "f", "text", "output format: text, json")
}

func runList(cmd *cobra.Command, args []string) error {
	reg, err := registry.Open(cfg.RegistryPath)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		dev, ok := reg.Device(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", registry.ErrDeviceNotFound, args[0])
		}
		if format == "json" {
			return encodeJSON(cmd, dev)
		}
		fmt.Fprintf(out, "%s (%s), current v%s\n\n", dev.DeviceName, dev.ID(), dev.CurrentVersion)
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tRECORDED\tREBUILD\tIMPACT\tAPPROVAL")
		for _, v := range dev.SpecHistory {
			rebuild := yesNo(v.RebuildPerformed)
			if v.IsBaseline {
				rebuild = "baseline"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", v.Version, v.Timestamp.Format("2006-01-02 15:04"), rebuild, v.ImpactCounts, v.ApprovalReason)
		}
		return tw.Flush()
	}

	ids := reg.List()
	if format == "json" {
		devices := make([]registry.Device, 0, len(ids))
		for _, id := range ids {
			d, _ := reg.Device(id)
			devices = append(devices, d)
		}
		return encodeJSON(cmd, devices)
	}
	if len(ids) == 0 {
		fmt.Fprintln(out, "No devices registered.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tNAME\tCURRENT\tVERSIONS")
	for _, id := range ids {
		d, _ := reg.Device(id)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", id, d.DeviceName, d.CurrentVersion, len(d.SpecHistory))
	}
	return tw.Flush()
}

func encodeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
