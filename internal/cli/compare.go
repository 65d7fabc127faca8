package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/specgate/internal/diff"
	"github.com/sprite-ai/specgate/internal/document"
	"github.com/sprite-ai/specgate/internal/report"
	"github.com/sprite-ai/specgate/internal/specdiff"
)

var compareCmd = &cobra.Command{
	Use:   "compare <old-document.json> <new-document.json>",
	Short: "Compare two spec documents without touching the registry",
	Long: `Diff two extracted spec documents and print the change report. Nothing
is recorded: the registry and the review queue are left alone.

With --old-pdf and --new-pdf the PDFs are hashed first; identical files
short-circuit the comparison.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().String("old-version", "old", "label for the old version")
	compareCmd.Flags().String("new-version", "new", "label for the new version")
	compareCmd.Flags().String("old-pdf", "", "old spec PDF")
	compareCmd.Flags().String("new-pdf", "", "new spec PDF")
	compareCmd.Flags().String("strategy", "", "diff strategy: content_hash, position (default from config)")
	compareCmd.Flags().StringP("format", "f", "markdown", "output format: markdown, json")
	compareCmd.Flags().Bool("no-color", false, "disable syntax highlighting")
}

func runCompare(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cfg)
	if err != nil {
		return err
	}
	f := cmd.Flags()

	strategy := e.strategy
	if name, _ := f.GetString("strategy"); name != "" {
		if strategy, err = diff.StrategyFor(name); err != nil {
			return err
		}
	}
	p, err := e.adhocParser()
	if err != nil {
		return err
	}

	oldSnap := specdiff.Snapshot{DocumentPath: args[0]}
	newSnap := specdiff.Snapshot{DocumentPath: args[1]}
	oldSnap.Version, _ = f.GetString("old-version")
	newSnap.Version, _ = f.GetString("new-version")
	if path, _ := f.GetString("old-pdf"); path != "" {
		if oldSnap.PDFHash, err = document.FileHash(path); err != nil {
			return err
		}
	}
	if path, _ := f.GetString("new-pdf"); path != "" {
		if newSnap.PDFHash, err = document.FileHash(path); err != nil {
			return err
		}
	}

	d, err := specdiff.NewDetector(p, specdiff.WithStrategy(strategy)).Compare(oldSnap, newSnap, "")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format, _ := f.GetString("format"); format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	_, content := report.NewGenerator().Render(d, report.Device{})
	noColor, _ := f.GetBool("no-color")
	return report.Print(out, content, !noColor && isTerminal(out))
}
