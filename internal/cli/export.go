package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/specgate/internal/document"
	"github.com/sprite-ai/specgate/internal/export"
	"github.com/sprite-ai/specgate/internal/fileutil"
	"github.com/sprite-ai/specgate/internal/inventory"
	"github.com/sprite-ai/specgate/internal/registry"
	"github.com/sprite-ai/specgate/internal/specdiff"
)

var exportCmd = &cobra.Command{
	Use:   "export [document.json]",
	Short: "Export a message inventory as an XLSX workbook",
	Long: `Write the messages and fields of a spec document to an XLSX workbook.
With --against, a Changes sheet lists the differences from an older document.
With --device-type, the device's current version is exported against the
version before it. --markdown also writes the document's markdown export,
the form "specgate check" classifies when exports are tracked in git.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("device-type", "", "export a registered device's current version")
	exportCmd.Flags().String("against", "", "older document to list changes against")
	exportCmd.Flags().StringP("output", "o", "inventory.xlsx", "workbook path")
	exportCmd.Flags().String("markdown", "", "also write the document's markdown export to this path")
}

func runExport(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cfg)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	deviceType, _ := f.GetString("device-type")
	against, _ := f.GetString("against")
	output, _ := f.GetString("output")
	mdPath, _ := f.GetString("markdown")

	newSnap := specdiff.Snapshot{Version: "new"}
	oldSnap := specdiff.Snapshot{Version: "old", DocumentPath: against}
	switch {
	case deviceType != "":
		dev, ok := e.registry.Device(deviceType)
		if !ok {
			return fmt.Errorf("%w: %s", registry.ErrDeviceNotFound, deviceType)
		}
		cur, _ := dev.Current()
		newSnap = specdiff.Snapshot{Version: cur.Version, DocumentPath: cur.DocumentPath}
		if n := len(dev.SpecHistory); n > 1 && against == "" {
			prev := dev.SpecHistory[n-2]
			oldSnap = specdiff.Snapshot{Version: prev.Version, DocumentPath: prev.DocumentPath}
		}
	case len(args) == 1:
		newSnap.DocumentPath = args[0]
	default:
		return fmt.Errorf("a document or --device-type is required")
	}

	p, err := e.adhocParser()
	if err != nil {
		return err
	}

	var (
		inv *inventory.MessageInventory
		d   *specdiff.SpecDiff
	)
	if oldSnap.DocumentPath != "" {
		d, err = specdiff.NewDetector(p, specdiff.WithStrategy(e.strategy)).Compare(oldSnap, newSnap, "")
		if err != nil {
			return err
		}
		inv = d.NewInventory
	} else {
		if inv, err = p.ParseFile(newSnap.DocumentPath, ""); err != nil {
			return err
		}
	}

	data, err := export.Workbook(inv, d)
	if err != nil {
		return err
	}
	if err := fileutil.WriteAtomic(output, data); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	out := cmd.OutOrStdout()
	if mdPath != "" {
		doc, err := document.Load(newSnap.DocumentPath)
		if err != nil {
			return err
		}
		if err := fileutil.WriteAtomic(mdPath, []byte(doc.Markdown())); err != nil {
			return fmt.Errorf("writing markdown: %w", err)
		}
		fmt.Fprintf(out, "Wrote %s\n", mdPath)
	}
	fmt.Fprintf(out, "Wrote %s (%d messages, %d fields)\n", output, len(inv.Recognized)+len(inv.Unrecognized), len(inv.Fields))
	return nil
}
